package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SlotStatusAvailable = "available"
	SlotStatusBooked    = "booked"
)

// Slot is one bookable window inside a bulk availability entry.
// Date is YYYY-MM-DD, StartTime/EndTime are HH:MM in Timezone.
type Slot struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Timezone  string `json:"timezone"`
	Status    string `json:"status"`
	IsBooked  bool   `json:"isBooked"`
}

// AvailabilityEntry is a row of freelancer_availability. Bulk rows carry the
// whole batch in Slots; legacy rows describe a single slot in the flat columns.
type AvailabilityEntry struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID string `gorm:"type:uuid;index;not null" json:"submission_id"`
	FreelancerID string `gorm:"type:uuid" json:"freelancer_id"`
	IsBulkEntry  bool   `gorm:"default:false;index" json:"is_bulk_entry"`

	Slots        datatypes.JSONSlice[Slot]   `gorm:"column:availability_slots" json:"availability_slots"`
	SlotCount    int                         `json:"slot_count"`
	DatesSummary datatypes.JSONSlice[string] `json:"dates_summary"`
	Timezone     string                      `gorm:"size:64" json:"timezone"`
	Version      int                         `gorm:"default:1" json:"version"`

	Date      string `gorm:"size:10" json:"date,omitempty"`
	StartTime string `gorm:"size:8" json:"start_time,omitempty"`
	EndTime   string `gorm:"size:8" json:"end_time,omitempty"`
	Status    string `gorm:"size:16" json:"status,omitempty"`
	IsBooked  bool   `json:"is_booked"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AvailabilityEntry) TableName() string { return "freelancer_availability" }

func (a *AvailabilityEntry) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
