package availability

import (
	"context"
	"time"

	avail "github.com/finzie/booking-coordinator/internal/domain/availability"
	"github.com/finzie/booking-coordinator/internal/timezone"
)

// SlotBooker flips the slot whose start matches a booked meeting.
type SlotBooker struct {
	repo   avail.Repository
	locker avail.Locker
}

func NewSlotBooker(repo avail.Repository, locker avail.Locker) *SlotBooker {
	return &SlotBooker{repo: repo, locker: locker}
}

func (b *SlotBooker) Claim(ctx context.Context, submissionID string, start time.Time) (bool, error) {
	return b.mark(ctx, submissionID, start, true)
}

func (b *SlotBooker) Release(ctx context.Context, submissionID string, start time.Time) (bool, error) {
	return b.mark(ctx, submissionID, start, false)
}

func (b *SlotBooker) mark(ctx context.Context, submissionID string, start time.Time, booked bool) (bool, error) {
	release, err := b.locker.Acquire(ctx, "availability:"+submissionID)
	if err != nil {
		return false, err
	}
	defer release()

	entry, err := b.repo.GetBulkEntry(ctx, submissionID)
	if err != nil {
		return false, err
	}
	if entry != nil {
		tz := entry.Timezone
		if tz == "" {
			tz = timezone.DefaultTimezone
		}
		if !avail.MarkBooked(entry.Slots, start, tz, booked) {
			return false, nil
		}
		return true, b.repo.SaveSlots(ctx, entry)
	}

	rows, err := b.repo.ListLegacyEntries(ctx, submissionID)
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		at, _, err := avail.Bounds(LegacySlot(r), timezone.DefaultTimezone)
		if err != nil || !at.Equal(start) {
			continue
		}
		return true, b.repo.SetLegacyBooked(ctx, r.ID, booked)
	}
	return false, nil
}
