package dto

import (
	"time"

	"github.com/finzie/booking-coordinator/internal/models"
)

// MeetingDTO is a meeting without its raw provider payload.
type MeetingDTO struct {
	ID            string     `json:"id"`
	EventID       string     `json:"eventId"`
	Status        string     `json:"status"`
	StartTime     *time.Time `json:"startTime"`
	EndTime       *time.Time `json:"endTime"`
	Timezone      string     `json:"timezone"`
	InviteeName   string     `json:"inviteeName"`
	InviteeEmail  string     `json:"inviteeEmail"`
	MeetingURL    string     `json:"meetingUrl"`
	BookingURL    string     `json:"bookingUrl"`
	CancelURL     string     `json:"cancelUrl"`
	RescheduleURL string     `json:"rescheduleUrl"`
	CanceledAt    *time.Time `json:"canceledAt"`
	CancelReason  string     `json:"cancelReason,omitempty"`
	NoShowAt      *time.Time `json:"noShowAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func NewMeetingDTO(m models.Meeting) MeetingDTO {
	return MeetingDTO{
		ID:            m.ID,
		EventID:       m.EventID,
		Status:        m.Status,
		StartTime:     m.StartTime,
		EndTime:       m.EndTime,
		Timezone:      m.Timezone,
		InviteeName:   m.InviteeName,
		InviteeEmail:  m.InviteeEmail,
		MeetingURL:    m.MeetingURL,
		BookingURL:    m.BookingURL,
		CancelURL:     m.CancelURL,
		RescheduleURL: m.RescheduleURL,
		CanceledAt:    m.CanceledAt,
		CancelReason:  m.CancelReason,
		NoShowAt:      m.NoShowAt,
		CreatedAt:     m.CreatedAt,
	}
}

func NewMeetingList(ms []models.Meeting) []MeetingDTO {
	out := make([]MeetingDTO, 0, len(ms))
	for _, m := range ms {
		out = append(out, NewMeetingDTO(m))
	}
	return out
}
