package availability

import (
	"context"

	"github.com/finzie/booking-coordinator/internal/auth"
	avail "github.com/finzie/booking-coordinator/internal/domain/availability"
	sub "github.com/finzie/booking-coordinator/internal/domain/submission"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/models"
	"github.com/finzie/booking-coordinator/internal/timezone"
)

type View int

const (
	// ViewFreelancer shows every slot to the submitting freelancer.
	ViewFreelancer View = iota
	// ViewClient shows only slots that can still be booked.
	ViewClient
)

type SlotView struct {
	models.Slot
	Duration string `json:"duration"`
}

type Summary struct {
	TotalSlots     int      `json:"totalSlots"`
	AvailableSlots int      `json:"availableSlots"`
	Dates          []string `json:"dates"`
	Timezone       string   `json:"timezone"`
}

type AvailabilityView struct {
	Availability []SlotView `json:"availability"`
	IsBulk       bool       `json:"isBulk"`
	Summary      Summary    `json:"summary"`
}

type GetAvailability struct {
	submissions sub.Repository
	repo        avail.Repository
}

func NewGetAvailability(
	submissions sub.Repository,
	repo avail.Repository,
) *GetAvailability {
	return &GetAvailability{
		submissions: submissions,
		repo:        repo,
	}
}

func (uc *GetAvailability) Execute(
	ctx context.Context,
	caller auth.Identity,
	submissionID string,
	view View,
) (*AvailabilityView, error) {

	s, err := uc.submissions.GetSubmissionWithForm(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	switch view {
	case ViewFreelancer:
		if !caller.IsAdmin() && !caller.OwnsEmail(s.Email) {
			return nil, httperr.Forbidden("forbidden", "You can only view availability for your own submission")
		}
	case ViewClient:
		if !sub.CanManage(caller, s) {
			return nil, httperr.Forbidden("forbidden", "You do not have access to this submission")
		}
	}

	slots, tz, isBulk, err := uc.load(ctx, s.ID)
	if err != nil {
		return nil, err
	}

	out := &AvailabilityView{
		Availability: []SlotView{},
		IsBulk:       isBulk,
		Summary: Summary{
			TotalSlots: len(slots),
			Dates:      []string{},
			Timezone:   tz,
		},
	}

	var shown []models.Slot
	for _, sl := range slots {
		open := avail.IsOpen(sl)
		if open {
			out.Summary.AvailableSlots++
		}
		if view == ViewClient && !open {
			continue
		}
		shown = append(shown, sl)
		out.Availability = append(out.Availability, SlotView{Slot: sl, Duration: duration(sl, tz)})
	}
	if dates := avail.UniqueDates(shown); dates != nil {
		out.Summary.Dates = dates
	}

	return out, nil
}

// load prefers the bulk row and falls back to legacy per-slot rows.
func (uc *GetAvailability) load(ctx context.Context, submissionID string) ([]models.Slot, string, bool, error) {
	entry, err := uc.repo.GetBulkEntry(ctx, submissionID)
	if err != nil {
		return nil, "", false, err
	}
	if entry != nil {
		tz := entry.Timezone
		if tz == "" {
			tz = timezone.DefaultTimezone
		}
		return []models.Slot(entry.Slots), tz, true, nil
	}

	rows, err := uc.repo.ListLegacyEntries(ctx, submissionID)
	if err != nil {
		return nil, "", false, err
	}

	tz := timezone.DefaultTimezone
	slots := make([]models.Slot, 0, len(rows))
	for _, r := range rows {
		if r.Timezone != "" {
			tz = r.Timezone
		}
		slots = append(slots, LegacySlot(r))
	}
	return slots, tz, false, nil
}

// LegacySlot maps a per-slot row onto the bulk slot shape.
func LegacySlot(r models.AvailabilityEntry) models.Slot {
	status := r.Status
	if status == "" {
		status = models.SlotStatusAvailable
		if r.IsBooked {
			status = models.SlotStatusBooked
		}
	}
	return models.Slot{
		ID:        r.ID,
		Date:      r.Date,
		StartTime: trimSeconds(r.StartTime),
		EndTime:   trimSeconds(r.EndTime),
		Timezone:  r.Timezone,
		Status:    status,
		IsBooked:  r.IsBooked,
	}
}

// legacy rows may carry HH:MM:SS
func trimSeconds(hm string) string {
	if len(hm) == 8 && hm[5] == ':' {
		return hm[:5]
	}
	return hm
}

func duration(s models.Slot, tz string) string {
	start, end, err := avail.Bounds(s, tz)
	if err != nil || !end.After(start) {
		return ""
	}
	return avail.FormatDuration(end.Sub(start))
}
