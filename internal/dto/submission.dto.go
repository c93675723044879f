package dto

import (
	"time"

	"github.com/finzie/booking-coordinator/internal/models"
)

type SubmissionDTO struct {
	ID         string `json:"id"`
	FormID     string `json:"formId"`
	FormTitle  string `json:"formTitle,omitempty"`
	ClientName string `json:"clientName,omitempty"`

	Email string `json:"email"`
	Name  string `json:"name"`

	Status         string     `json:"status"`
	IsSelected     bool       `json:"isSelected"`
	SelectionNotes string     `json:"selectionNotes,omitempty"`
	SelectedAt     *time.Time `json:"selectedAt"`
	SelectedBy     string     `json:"selectedBy,omitempty"`

	AvailabilitySetAt    *time.Time `json:"availabilitySetAt"`
	CalendlyLink         string     `json:"calendlyLink,omitempty"`
	CalendlyLinkSharedAt *time.Time `json:"calendlyLinkSharedAt"`
	MeetingScheduledAt   *time.Time `json:"meetingScheduledAt"`
	CompletedAt          *time.Time `json:"completedAt"`

	UpdatedAt time.Time `json:"updatedAt"`
}

func NewSubmissionDTO(s *models.Submission) SubmissionDTO {
	out := SubmissionDTO{
		ID:                   s.ID,
		FormID:               s.FormID,
		Email:                s.Email,
		Name:                 s.Name,
		Status:               s.Status,
		IsSelected:           s.IsSelected,
		SelectionNotes:       s.SelectionNotes,
		SelectedAt:           s.SelectedAt,
		SelectedBy:           s.SelectedBy,
		AvailabilitySetAt:    s.AvailabilitySetAt,
		CalendlyLink:         s.CalendlyLink,
		CalendlyLinkSharedAt: s.CalendlyLinkSharedAt,
		MeetingScheduledAt:   s.MeetingScheduledAt,
		CompletedAt:          s.CompletedAt,
		UpdatedAt:            s.UpdatedAt,
	}
	if s.Form != nil {
		out.FormTitle = s.Form.Title
		if s.Form.Client != nil {
			out.ClientName = s.Form.Client.Name
		}
	}
	return out
}
