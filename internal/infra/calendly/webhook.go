package calendly

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/finzie/booking-coordinator/internal/domain/meeting"
	"github.com/finzie/booking-coordinator/internal/httperr"
)

var validate = validator.New()

// descriptionPattern recovers the submission id from links created before
// custom answers were prefilled.
var descriptionPattern = regexp.MustCompile(`Submission ID:\s*([A-Za-z0-9-]+)`)

type scheduledEvent struct {
	UUID        string `json:"uuid" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	Description string `json:"description"`
	Location    struct {
		JoinURL  string `json:"join_url"`
		Location string `json:"location"`
	} `json:"location"`
}

type invitee struct {
	UUID          string `json:"uuid"`
	Name          string `json:"name"`
	Email         string `json:"email" validate:"omitempty,email"`
	Timezone      string `json:"timezone"`
	CancelURL     string `json:"cancel_url"`
	RescheduleURL string `json:"reschedule_url"`
	CancelReason  string `json:"cancel_reason"`
}

type answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
}

type body struct {
	Event               *scheduledEvent `json:"-" validate:"required"`
	Invitee             invitee         `json:"invitee"`
	QuestionsAndAnswers []answer        `json:"questions_and_answers"`
	Cancellation        *struct {
		Reason string `json:"reason"`
	} `json:"cancellation"`
}

type rawBody struct {
	Event               json.RawMessage `json:"event"`
	EventType           json.RawMessage `json:"event_type"`
	ScheduledEvent      json.RawMessage `json:"scheduled_event"`
	Invitee             invitee         `json:"invitee"`
	QuestionsAndAnswers []answer        `json:"questions_and_answers"`
	Cancellation        *struct {
		Reason string `json:"reason"`
	} `json:"cancellation"`
}

// payload is the v1/v2 payload object. v2 puts the invitee fields on the
// payload itself instead of under "invitee".
type payload struct {
	rawBody
	invitee
}

type envelope struct {
	rawBody
	Time    string   `json:"time"`
	Payload *payload `json:"payload"`
}

// ParseWebhook decodes a verified webhook body. Unknown event kinds come back
// with only Kind set so the caller can acknowledge them.
func ParseWebhook(raw []byte) (meeting.BookingEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return meeting.BookingEvent{}, httperr.InvalidInput("invalid_payload", "Webhook body is not valid JSON")
	}

	// Nested form: {event: "<kind>", payload: {...}}.
	// Flat form: {event: "<kind>", event_type: {...}, invitee, ...}; older
	// senders swap the two and put the kind in event_type.
	kind := asString(env.Event)
	src := env.rawBody
	if env.Payload != nil {
		src = env.Payload.rawBody
		if src.Invitee == (invitee{}) {
			src.Invitee = env.Payload.invitee
		}
	} else if kind == "" {
		kind = asString(env.EventType)
	}

	if kind == "" {
		return meeting.BookingEvent{}, httperr.InvalidInput("invalid_payload", "Webhook event type is missing")
	}

	ev := meeting.BookingEvent{Kind: meeting.EventKind(kind), Raw: raw}
	if !ev.Kind.Known() {
		return ev, nil
	}

	b := body{
		Invitee:             src.Invitee,
		QuestionsAndAnswers: src.QuestionsAndAnswers,
		Cancellation:        src.Cancellation,
	}
	if obj := eventObject(src); obj != nil {
		var se scheduledEvent
		if err := json.Unmarshal(obj, &se); err != nil {
			return ev, httperr.InvalidInput("invalid_payload", "Webhook event object is malformed")
		}
		b.Event = &se
	}

	if err := validate.Struct(b); err != nil {
		return ev, httperr.InvalidInput("invalid_payload", describe(err))
	}

	start, err := time.Parse(time.RFC3339, b.Event.StartTime)
	if err != nil {
		return ev, httperr.InvalidInput("invalid_payload", "event.start_time is not RFC3339")
	}
	end, err := time.Parse(time.RFC3339, b.Event.EndTime)
	if err != nil {
		return ev, httperr.InvalidInput("invalid_payload", "event.end_time is not RFC3339")
	}

	ev.EventUUID = b.Event.UUID
	ev.Start = start.UTC()
	ev.End = end.UTC()
	ev.Timezone = b.Invitee.Timezone
	ev.InviteeName = b.Invitee.Name
	ev.InviteeEmail = b.Invitee.Email
	ev.MeetingURL = b.Event.Location.JoinURL
	if ev.MeetingURL == "" {
		ev.MeetingURL = b.Event.Location.Location
	}
	ev.CancelURL = b.Invitee.CancelURL
	ev.RescheduleURL = b.Invitee.RescheduleURL
	ev.CancelReason = b.Invitee.CancelReason
	if ev.CancelReason == "" && b.Cancellation != nil {
		ev.CancelReason = b.Cancellation.Reason
	}
	ev.Correlation = correlate(b.QuestionsAndAnswers, b.Event.Description)

	return ev, nil
}

// correlate reads the ids prefilled as a1..a3, falling back to the
// "Submission ID:" line in the event description.
func correlate(answers []answer, description string) meeting.Correlation {
	var c meeting.Correlation

	sorted := append([]answer(nil), answers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	for _, a := range sorted {
		q := strings.ToLower(a.Question)
		v := strings.TrimSpace(a.Answer)
		if v == "" {
			continue
		}
		switch {
		case strings.Contains(q, "submission"):
			c.SubmissionID = v
		case strings.Contains(q, "form"):
			c.FormID = v
		case strings.Contains(q, "client"):
			c.ClientID = v
		}
	}

	byPosition := func(pos int) string {
		for _, a := range sorted {
			if a.Position == pos {
				return strings.TrimSpace(a.Answer)
			}
		}
		return ""
	}
	if c.SubmissionID == "" {
		c.SubmissionID = byPosition(0)
	}
	if c.FormID == "" {
		c.FormID = byPosition(1)
	}
	if c.ClientID == "" {
		c.ClientID = byPosition(2)
	}

	if c.SubmissionID == "" {
		if m := descriptionPattern.FindStringSubmatch(description); m != nil {
			c.SubmissionID = m[1]
			c.FromDescription = true
			log.Printf("[calendly] submission %s recovered from event description", c.SubmissionID)
		}
	}
	return c
}

// eventObject returns the first of scheduled_event, event and event_type
// that holds a JSON object.
func eventObject(src rawBody) []byte {
	for _, raw := range []json.RawMessage{src.ScheduledEvent, src.Event, src.EventType} {
		if obj := bytes.TrimSpace(raw); len(obj) > 0 && obj[0] == '{' {
			return obj
		}
	}
	return nil
}

func asString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func describe(err error) string {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s failed %s", strings.ToLower(fe.Namespace()), fe.Tag())
	}
	return "Webhook payload failed validation"
}
