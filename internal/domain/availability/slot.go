package availability

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/models"
	"github.com/finzie/booking-coordinator/internal/timezone"
)

const (
	RequiredDates = 3
	MinDuration   = 30 * time.Minute
	MaxDuration   = 120 * time.Minute
	MinLeadTime   = 24 * time.Hour

	dateLayout = "2006-01-02"
	hmLayout   = "15:04"
)

// DateGroup is the slots offered on one date.
type DateGroup struct {
	Date  string
	Slots []models.Slot
}

// GroupByDate groups flat slots by date, keeping first-seen date order.
func GroupByDate(slots []models.Slot) []DateGroup {
	idx := map[string]int{}
	var out []DateGroup
	for _, s := range slots {
		i, ok := idx[s.Date]
		if !ok {
			i = len(out)
			idx[s.Date] = i
			out = append(out, DateGroup{Date: s.Date})
		}
		out[i].Slots = append(out[i].Slots, s)
	}
	return out
}

// Validate checks a batch in order and returns the first broken rule.
func Validate(groups []DateGroup, defaultTZ string, now time.Time) error {
	distinct := map[string]struct{}{}
	for _, g := range groups {
		distinct[g.Date] = struct{}{}
	}
	if len(distinct) != RequiredDates {
		return httperr.InvalidInput("invalid_dates", "Please provide exactly 3 different dates")
	}

	for _, g := range groups {
		if len(g.Slots) == 0 {
			return httperr.InvalidInput(
				"empty_date",
				fmt.Sprintf("Please add at least one time slot for %s", g.Date),
			)
		}
	}

	n := 0
	for _, g := range groups {
		for _, s := range g.Slots {
			n++
			if s.Date == "" {
				s.Date = g.Date
			}
			if err := validateSlot(n, s, defaultTZ, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateSlot(n int, s models.Slot, defaultTZ string, now time.Time) error {
	label := fmt.Sprintf("Slot %d (%s %s-%s)", n, s.Date, s.StartTime, s.EndTime)

	start, end, err := Bounds(s, defaultTZ)
	if err != nil {
		return httperr.InvalidInput("invalid_slot", fmt.Sprintf("%s: %v", label, err))
	}

	if !end.After(start) {
		return httperr.InvalidInput("invalid_slot_range", label+": end time must be after start time")
	}

	d := end.Sub(start)
	if d < MinDuration {
		return httperr.InvalidInput("slot_too_short", label+": each slot must be at least 30 minutes long")
	}
	if d > MaxDuration {
		return httperr.InvalidInput("slot_too_long", label+": each slot cannot be longer than 2 hours")
	}

	if start.Before(now.Add(MinLeadTime)) {
		return httperr.InvalidInput("slot_too_soon", label+": slots must start at least 24 hours from now")
	}
	return nil
}

// Bounds resolves a slot's start and end instants in its timezone.
func Bounds(s models.Slot, defaultTZ string) (time.Time, time.Time, error) {
	tz := s.Timezone
	if tz == "" {
		tz = defaultTZ
	}
	loc, err := timezone.Load(tz)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	day, err := time.ParseInLocation(dateLayout, s.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q", s.Date)
	}
	st, err := time.Parse(hmLayout, s.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time %q", s.StartTime)
	}
	et, err := time.Parse(hmLayout, s.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time %q", s.EndTime)
	}

	at := func(t time.Time) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	}
	return at(st), at(et), nil
}

// Prepare assigns fresh ids and booking state to a validated batch.
func Prepare(groups []DateGroup, defaultTZ string) []models.Slot {
	var out []models.Slot
	for _, g := range groups {
		for _, s := range g.Slots {
			if s.Date == "" {
				s.Date = g.Date
			}
			if s.Timezone == "" {
				s.Timezone = defaultTZ
			}
			s.ID = uuid.NewString()
			s.Status = models.SlotStatusAvailable
			s.IsBooked = false
			out = append(out, s)
		}
	}
	return out
}

// UniqueDates returns the sorted distinct dates of slots.
func UniqueDates(slots []models.Slot) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range slots {
		if _, ok := seen[s.Date]; ok {
			continue
		}
		seen[s.Date] = struct{}{}
		out = append(out, s.Date)
	}
	sort.Strings(out)
	return out
}

// IsOpen reports whether a slot can still be offered to a client.
func IsOpen(s models.Slot) bool {
	return s.Status == models.SlotStatusAvailable && !s.IsBooked
}

// FormatDuration renders a slot length for display: "30 min", "1 hr", "1.5 hrs".
func FormatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	if mins < 60 {
		return fmt.Sprintf("%d min", mins)
	}
	if mins == 60 {
		return "1 hr"
	}
	hrs := strconv.FormatFloat(float64(mins)/60, 'f', -1, 64)
	return hrs + " hrs"
}

// MarkBooked flips the slot starting at `at` and reports whether one matched.
func MarkBooked(slots []models.Slot, at time.Time, defaultTZ string, booked bool) bool {
	for i := range slots {
		start, _, err := Bounds(slots[i], defaultTZ)
		if err != nil || !start.Equal(at) {
			continue
		}
		slots[i].IsBooked = booked
		if booked {
			slots[i].Status = models.SlotStatusBooked
		} else {
			slots[i].Status = models.SlotStatusAvailable
		}
		return true
	}
	return false
}
