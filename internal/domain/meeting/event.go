package meeting

import "time"

// Correlation carries the identifiers embedded in the scheduling link.
type Correlation struct {
	SubmissionID string
	FormID       string
	ClientID     string
	// FromDescription is set when the submission id came from the free-text
	// description fallback.
	FromDescription bool
}

// BookingEvent is a provider webhook after signature checks and parsing.
type BookingEvent struct {
	Kind      EventKind
	EventUUID string

	Start    time.Time
	End      time.Time
	Timezone string

	InviteeName  string
	InviteeEmail string

	MeetingURL    string
	CancelURL     string
	RescheduleURL string
	CancelReason  string

	Correlation Correlation
	Raw         []byte
}
