package availability

import (
	"context"
	"time"

	"github.com/finzie/booking-coordinator/internal/audit"
	"github.com/finzie/booking-coordinator/internal/auth"
	"github.com/finzie/booking-coordinator/internal/domain"
	avail "github.com/finzie/booking-coordinator/internal/domain/availability"
	sub "github.com/finzie/booking-coordinator/internal/domain/submission"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/models"
	"github.com/finzie/booking-coordinator/internal/timezone"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type SetAvailabilityInput struct {
	SubmissionID string
	Timezone     string
	Slots        []models.Slot
}

type SetAvailabilityResult struct {
	SlotsCount int `json:"slotsCount"`
	DatesCount int `json:"datesCount"`
}

// ======================================================
// USE CASE
// ======================================================

type SetAvailability struct {
	submissions sub.Repository
	repo        avail.Repository
	tx          domain.Transactor
	locker      avail.Locker
	audit       audit.Recorder
	now         func() time.Time
}

func NewSetAvailability(
	submissions sub.Repository,
	repo avail.Repository,
	tx domain.Transactor,
	locker avail.Locker,
	audit audit.Recorder,
) *SetAvailability {
	return &SetAvailability{
		submissions: submissions,
		repo:        repo,
		tx:          tx,
		locker:      locker,
		audit:       audit,
		now:         timezone.Now,
	}
}

// Execute runs the checks in order and stops at the first failure:
// ownership, lifecycle, dates, then each slot.
func (uc *SetAvailability) Execute(
	ctx context.Context,
	caller auth.Identity,
	in SetAvailabilityInput,
) (*SetAvailabilityResult, error) {

	s, err := uc.submissions.GetSubmission(ctx, in.SubmissionID)
	if err != nil {
		return nil, err
	}

	if !caller.OwnsEmail(s.Email) {
		return nil, httperr.Unauthorized("not_submission_owner", "You can only set availability for your own submission")
	}

	if err := sub.CanSetAvailability(sub.Status(s.Status), s.IsSelected); err != nil {
		return nil, err
	}

	tz := in.Timezone
	if tz == "" {
		tz = timezone.DefaultTimezone
	}
	if !timezone.IsValid(tz) {
		return nil, httperr.InvalidInput("invalid_timezone", "Unknown timezone "+tz)
	}

	groups := avail.GroupByDate(in.Slots)
	if err := avail.Validate(groups, tz, uc.now()); err != nil {
		return nil, err
	}

	slots := avail.Prepare(groups, tz)
	dates := avail.UniqueDates(slots)

	var freelancerID string
	if f, err := uc.submissions.GetFreelancerByEmail(ctx, s.Email); err == nil {
		freelancerID = f.ID
	} else if !httperr.IsKind(err, httperr.KindNotFound) {
		return nil, err
	}

	release, err := uc.locker.Acquire(ctx, "availability:"+s.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Re-read under the lock; a link may have been shared meanwhile.
		cur, err := uc.submissions.GetSubmission(ctx, s.ID)
		if err != nil {
			return err
		}
		if err := sub.CanSetAvailability(sub.Status(cur.Status), cur.IsSelected); err != nil {
			return err
		}

		if err := uc.repo.ReplaceBulkEntry(ctx, &models.AvailabilityEntry{
			SubmissionID: s.ID,
			FreelancerID: freelancerID,
			Slots:        slots,
			SlotCount:    len(slots),
			DatesSummary: dates,
			Timezone:     tz,
		}); err != nil {
			return err
		}

		_, err = sub.Advance(ctx, uc.submissions, cur, sub.EventAvailabilitySubmitted, uc.now(), nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		SubmissionID: s.ID,
		Actor:        caller.Email,
		Action:       "availability_set",
		Entity:       "availability",
		EntityID:     s.ID,
		Metadata:     map[string]any{"slots": len(slots), "dates": dates},
	})

	return &SetAvailabilityResult{
		SlotsCount: len(slots),
		DatesCount: len(dates),
	}, nil
}
