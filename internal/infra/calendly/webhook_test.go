package calendly

import (
	"testing"
	"time"

	"github.com/finzie/booking-coordinator/internal/domain/meeting"
	"github.com/finzie/booking-coordinator/internal/httperr"
)

const nestedCreated = `{
  "event": "invitee.created",
  "time": "2030-01-01T12:00:00Z",
  "payload": {
    "event_type": {"uuid": "ET-1", "name": "Intro call"},
    "event": {
      "uuid": "EVT-1",
      "start_time": "2030-01-03T10:00:00Z",
      "end_time": "2030-01-03T11:00:00Z",
      "location": {"join_url": "https://zoom.test/j/1"}
    },
    "invitee": {
      "name": "Acme Corp",
      "email": "hiring@acme.test",
      "timezone": "Europe/Berlin",
      "cancel_url": "https://calendly.com/cancellations/INV-1",
      "reschedule_url": "https://calendly.com/reschedulings/INV-1"
    },
    "questions_and_answers": [
      {"question": "Form", "answer": "form-1", "position": 1},
      {"question": "Submission", "answer": "sub-1", "position": 0},
      {"question": "Client", "answer": "client-1", "position": 2}
    ]
  }
}`

func TestParseWebhook_Nested(t *testing.T) {
	ev, err := ParseWebhook([]byte(nestedCreated))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Kind != meeting.KindCreated || ev.EventUUID != "EVT-1" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if !ev.Start.Equal(time.Date(2030, 1, 3, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s", ev.Start)
	}
	if ev.MeetingURL != "https://zoom.test/j/1" || ev.Timezone != "Europe/Berlin" {
		t.Fatalf("unexpected meeting details %+v", ev)
	}
	want := meeting.Correlation{SubmissionID: "sub-1", FormID: "form-1", ClientID: "client-1"}
	if ev.Correlation != want {
		t.Fatalf("expected %+v, got %+v", want, ev.Correlation)
	}
	if len(ev.Raw) == 0 {
		t.Fatalf("expected raw payload to be kept")
	}
}

func TestParseWebhook_FlatWithDescriptionFallback(t *testing.T) {
	raw := `{
	  "event_type": "invitee.canceled",
	  "event": {
	    "uuid": "EVT-2",
	    "start_time": "2030-01-03T10:00:00+01:00",
	    "end_time": "2030-01-03T11:00:00+01:00",
	    "description": "Interview. Submission ID: 6f1c-42ab"
	  },
	  "invitee": {"name": "Acme", "email": "hiring@acme.test", "cancel_reason": "conflict"}
	}`

	ev, err := ParseWebhook([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Kind != meeting.KindCanceled || ev.CancelReason != "conflict" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Correlation.SubmissionID != "6f1c-42ab" || !ev.Correlation.FromDescription {
		t.Fatalf("expected description fallback, got %+v", ev.Correlation)
	}
	if ev.Start.Hour() != 9 {
		t.Fatalf("expected start normalized to UTC, got %s", ev.Start)
	}
}

func TestParseWebhook_FlatKindInEvent(t *testing.T) {
	raw := `{
	  "event": "invitee.created",
	  "event_type": {
	    "uuid": "EVT-3",
	    "start_time": "2030-01-04T14:00:00Z",
	    "end_time": "2030-01-04T15:00:00Z"
	  },
	  "invitee": {"name": "Acme Corp", "email": "hiring@acme.test"},
	  "questions_and_answers": [{"question": "Submission", "answer": "sub-3", "position": 0}]
	}`

	ev, err := ParseWebhook([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Kind != meeting.KindCreated || ev.EventUUID != "EVT-3" || ev.InviteeEmail != "hiring@acme.test" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Correlation.SubmissionID != "sub-3" {
		t.Fatalf("unexpected correlation %+v", ev.Correlation)
	}
}

func TestParseWebhook_ScheduledEventPayload(t *testing.T) {
	raw := `{
	  "event": "invitee.canceled",
	  "payload": {
	    "name": "Acme Corp",
	    "email": "hiring@acme.test",
	    "timezone": "Asia/Kolkata",
	    "cancellation": {"reason": "travel"},
	    "scheduled_event": {
	      "uuid": "EVT-4",
	      "start_time": "2030-01-05T09:00:00Z",
	      "end_time": "2030-01-05T10:00:00Z"
	    },
	    "questions_and_answers": [{"question": "Submission", "answer": "sub-4", "position": 0}]
	  }
	}`

	ev, err := ParseWebhook([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Kind != meeting.KindCanceled || ev.EventUUID != "EVT-4" || ev.CancelReason != "travel" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.InviteeName != "Acme Corp" || ev.Timezone != "Asia/Kolkata" {
		t.Fatalf("expected payload-level invitee fields, got %+v", ev)
	}
}

func TestParseWebhook_UnknownKindIsAcknowledged(t *testing.T) {
	ev, err := ParseWebhook([]byte(`{"event":"routing_form_submission.created","payload":{}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Kind.Known() || ev.EventUUID != "" {
		t.Fatalf("expected bare unknown event, got %+v", ev)
	}
}

func TestParseWebhook_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":     `{`,
		"no kind":      `{"payload":{}}`,
		"no event obj": `{"event":"invitee.created","payload":{"invitee":{}}}`,
		"no uuid":      `{"event":"invitee.created","payload":{"event":{"start_time":"2030-01-03T10:00:00Z","end_time":"2030-01-03T11:00:00Z"}}}`,
		"bad start":    `{"event":"invitee.created","payload":{"event":{"uuid":"E","start_time":"tomorrow","end_time":"2030-01-03T11:00:00Z"}}}`,
		"bad email":    `{"event":"invitee.created","payload":{"event":{"uuid":"E","start_time":"2030-01-03T10:00:00Z","end_time":"2030-01-03T11:00:00Z"},"invitee":{"email":"nope"}}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseWebhook([]byte(raw)); !httperr.IsKind(err, httperr.KindInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}
