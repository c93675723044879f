package meeting

import (
	"fmt"
	"strings"

	"github.com/finzie/booking-coordinator/internal/httperr"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCanceled  Status = "canceled"
	StatusNoShow    Status = "no_show"
)

// EventKind is the provider event type after normalization.
type EventKind string

const (
	KindCreated     EventKind = "invitee.created"
	KindCanceled    EventKind = "invitee.canceled"
	KindRescheduled EventKind = "invitee.rescheduled"
	KindNoShow      EventKind = "invitee.no_show"
)

func (k EventKind) Known() bool {
	switch k {
	case KindCreated, KindCanceled, KindRescheduled, KindNoShow:
		return true
	}
	return false
}

const pendingPrefix = "pending_"

// PendingEventID is the placeholder event id stored between link creation and
// the booking webhook.
func PendingEventID(unixMillis int64, submissionID string) string {
	return fmt.Sprintf("%s%d_%s", pendingPrefix, unixMillis, submissionID)
}

func IsPendingEventID(id string) bool {
	return strings.HasPrefix(id, pendingPrefix)
}

// Outcome of applying a provider event to a meeting.
type Outcome int

const (
	Apply Outcome = iota
	// Noop means the event was already applied (redelivery).
	Noop
)

// Transition decides how a provider event affects a meeting in `current`.
func Transition(current Status, kind EventKind) (Status, Outcome, error) {
	switch kind {
	case KindCreated:
		switch current {
		case StatusPending, StatusScheduled:
			return StatusScheduled, Apply, nil
		case StatusCanceled, StatusNoShow:
			return current, Noop, nil
		}
	case KindCanceled:
		switch current {
		case StatusPending, StatusScheduled:
			return StatusCanceled, Apply, nil
		case StatusCanceled:
			return current, Noop, nil
		}
	case KindRescheduled:
		if current == StatusScheduled {
			return StatusScheduled, Apply, nil
		}
	case KindNoShow:
		switch current {
		case StatusScheduled:
			return StatusNoShow, Apply, nil
		case StatusNoShow:
			return current, Noop, nil
		}
	}

	return current, Noop, httperr.Conflict(
		"invalid_meeting_transition",
		fmt.Sprintf("cannot apply %s to a %s meeting", kind, current),
	)
}

// AllowedFrom lists meeting statuses from which kind applies.
func AllowedFrom(kind EventKind) []Status {
	switch kind {
	case KindCreated, KindCanceled:
		return []Status{StatusPending, StatusScheduled}
	case KindRescheduled, KindNoShow:
		return []Status{StatusScheduled}
	}
	return nil
}
