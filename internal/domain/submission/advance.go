package submission

import (
	"context"
	"time"

	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/models"
)

// stampColumn is the timestamp column written alongside each event.
var stampColumn = map[Event]string{
	EventSelect:                "selected_at",
	EventAvailabilitySubmitted: "availability_set_at",
	EventLinkShared:            "calendly_link_shared_at",
	EventMeetingBooked:         "meeting_scheduled_at",
	EventMeetingCompleted:      "completed_at",
}

// Advance applies ev to s through a conditional update and mirrors the
// result onto s. patch values win over the default stamp.
func Advance(
	ctx context.Context,
	repo Repository,
	s *models.Submission,
	ev Event,
	now time.Time,
	patch map[string]any,
) (Status, error) {

	next, err := Transition(Status(s.Status), s.IsSelected, ev)
	if err != nil {
		return Status(s.Status), err
	}

	updates := map[string]any{}
	if col, ok := stampColumn[ev]; ok {
		updates[col] = now
	}
	if ev == EventMeetingCanceled {
		updates["meeting_scheduled_at"] = nil
	}
	for k, v := range patch {
		updates[k] = v
	}

	ok, err := repo.UpdateStatus(ctx, s.ID, AllowedFrom(ev, s.IsSelected), next, updates)
	if err != nil {
		return Status(s.Status), err
	}
	if !ok {
		return Status(s.Status), httperr.Conflict("status_changed", "Submission changed in the meantime, please retry")
	}

	s.Status = string(next)
	return next, nil
}
