package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Meeting is the durable record of a (pending or booked) Calendly event.
// EventID is the provider's event uuid, or a pending_ placeholder until the
// booking webhook arrives.
type Meeting struct {
	ID      string `gorm:"type:uuid;primaryKey" json:"id"`
	EventID string `gorm:"size:255;uniqueIndex;not null" json:"event_id"`
	Status  string `gorm:"size:20;default:'pending';index" json:"status"`

	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Timezone  string     `gorm:"size:64" json:"timezone"`

	InviteeName  string `gorm:"size:255" json:"invitee_name"`
	InviteeEmail string `gorm:"size:255" json:"invitee_email"`

	MeetingURL    string `gorm:"type:text" json:"meeting_url"`
	BookingURL    string `gorm:"type:text" json:"booking_url"`
	CancelURL     string `gorm:"type:text" json:"cancel_url"`
	RescheduleURL string `gorm:"type:text" json:"reschedule_url"`

	ClientID     string `gorm:"size:64;index" json:"client_id"`
	FreelancerID string `gorm:"size:64;index" json:"freelancer_id"`
	FormID       string `gorm:"size:64;index" json:"form_id"`
	SubmissionID string `gorm:"size:64;index" json:"submission_id"`

	RawPayload datatypes.JSON `json:"raw_payload,omitempty"`

	CanceledAt   *time.Time `json:"canceled_at"`
	CancelReason string     `gorm:"type:text" json:"cancel_reason"`
	NoShowAt     *time.Time `json:"no_show_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Meeting) TableName() string { return "meetings" }

func (m *Meeting) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
