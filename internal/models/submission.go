package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Submission is a freelancer's application against a client's job form.
type Submission struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	FormID string `gorm:"type:uuid;index" json:"form_id"`
	Form   *Form  `gorm:"foreignKey:FormID" json:"form,omitempty"`

	Email string `gorm:"size:255;index;not null" json:"email"`
	Name  string `gorm:"size:255" json:"name"`

	Status     string `gorm:"size:32;default:'new';index" json:"status"`
	IsSelected bool   `gorm:"default:false" json:"is_selected"`

	SelectionNotes string     `gorm:"type:text" json:"selection_notes"`
	SelectedAt     *time.Time `json:"selected_at"`
	SelectedBy     string     `gorm:"size:255" json:"selected_by"`

	AvailabilitySetAt    *time.Time `json:"availability_set_at"`
	CalendlyLink         string     `gorm:"type:text" json:"calendly_link"`
	CalendlyLinkSharedAt *time.Time `json:"calendly_link_shared_at"`
	MeetingScheduledAt   *time.Time `json:"meeting_scheduled_at"`
	CompletedAt          *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Submission) TableName() string { return "freelancer_submissions" }

func (s *Submission) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Form is the client's job form; only the columns this service reads.
type Form struct {
	ID       string  `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID string  `gorm:"type:uuid;index" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Title    string  `gorm:"size:255" json:"title"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Form) TableName() string { return "forms" }

func (f *Form) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

type Client struct {
	ID    string `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string `gorm:"size:255" json:"name"`
	Email string `gorm:"size:255;index" json:"email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Client) TableName() string { return "client_table" }

func (c *Client) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Freelancer struct {
	ID    string `gorm:"type:uuid;primaryKey" json:"id"`
	Email string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name  string `gorm:"size:255" json:"name"`

	// Calendly event type the freelancer's meetings are booked against.
	CalendlyEventTypeURI string `gorm:"type:text" json:"calendly_event_type_uri"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Freelancer) TableName() string { return "freelancers" }

func (f *Freelancer) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
