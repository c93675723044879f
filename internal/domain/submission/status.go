package submission

import (
	"fmt"

	"github.com/finzie/booking-coordinator/internal/httperr"
)

// ===============================
// Submission Status
// ===============================

type Status string

const (
	StatusNew                Status = "new"
	StatusSelected           Status = "selected"
	StatusAccepted           Status = "accepted" // legacy alias of selected
	StatusAvailabilitySet    Status = "availability_set"
	StatusCalendlyLinkShared Status = "calendly_link_shared"
	StatusMeetingScheduled   Status = "meeting_scheduled"
	StatusCompleted          Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusSelected, StatusAccepted, StatusAvailabilitySet,
		StatusCalendlyLinkShared, StatusMeetingScheduled, StatusCompleted:
		return true
	}
	return false
}

// ===============================
// Lifecycle Events
// ===============================

type Event string

const (
	EventSelect                Event = "select"
	EventAvailabilitySubmitted Event = "availability_submitted"
	EventLinkShared            Event = "link_shared"
	EventMeetingBooked         Event = "meeting_booked"
	EventMeetingCanceled       Event = "meeting_canceled"
	EventMeetingCompleted      Event = "meeting_completed"
)

type rule struct {
	from []Status
	to   Status
	// allowed from any pre-link status when the submission is flagged selected
	selectedFlag bool
}

var transitions = map[Event]rule{
	EventSelect: {
		from: []Status{StatusNew, StatusSelected, StatusAccepted},
		to:   StatusSelected,
	},
	EventAvailabilitySubmitted: {
		from:         []Status{StatusSelected, StatusAccepted, StatusAvailabilitySet},
		to:           StatusAvailabilitySet,
		selectedFlag: true,
	},
	EventLinkShared: {
		from: []Status{StatusAvailabilitySet, StatusCalendlyLinkShared},
		to:   StatusCalendlyLinkShared,
	},
	EventMeetingBooked: {
		from: []Status{StatusCalendlyLinkShared, StatusMeetingScheduled},
		to:   StatusMeetingScheduled,
	},
	EventMeetingCanceled: {
		from: []Status{StatusMeetingScheduled, StatusCalendlyLinkShared},
		to:   StatusCalendlyLinkShared,
	},
	EventMeetingCompleted: {
		from: []Status{StatusMeetingScheduled, StatusCompleted},
		to:   StatusCompleted,
	},
}

// preLink are the statuses where the is_selected flag alone is enough to
// accept availability.
var preLink = []Status{StatusNew, StatusSelected, StatusAccepted, StatusAvailabilitySet}

// Transition is the single source of truth for submission lifecycle moves.
// It returns the next status or a Forbidden business error.
func Transition(current Status, isSelected bool, ev Event) (Status, error) {
	r, ok := transitions[ev]
	if !ok {
		return current, httperr.Forbidden("invalid_transition", fmt.Sprintf("unknown lifecycle event %q", ev))
	}

	if contains(r.from, current) || (r.selectedFlag && isSelected && contains(preLink, current)) {
		return r.to, nil
	}

	return current, httperr.Forbidden(
		"invalid_transition",
		fmt.Sprintf("cannot apply %s while submission is %s", ev, current),
	)
}

// AllowedFrom lists the statuses a conditional update may match for ev.
func AllowedFrom(ev Event, isSelected bool) []Status {
	r, ok := transitions[ev]
	if !ok {
		return nil
	}
	out := append([]Status(nil), r.from...)
	if r.selectedFlag && isSelected {
		for _, s := range preLink {
			if !contains(out, s) {
				out = append(out, s)
			}
		}
	}
	return out
}

// CanSetAvailability mirrors the availability precondition used before any
// slot validation runs.
func CanSetAvailability(current Status, isSelected bool) error {
	_, err := Transition(current, isSelected, EventAvailabilitySubmitted)
	return err
}

func contains(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
