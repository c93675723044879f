package calendly

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/finzie/booking-coordinator/internal/config"
	"github.com/finzie/booking-coordinator/internal/httperr"
)

func newTestClient(srvURL string, timeout time.Duration) *Client {
	return NewClient(&config.Config{
		CalendlyAPIURL:       srvURL,
		CalendlyToken:        "tok-123",
		CalendlyEventTypeURI: "https://api.calendly.com/event_types/DEFAULT",
		CalendlyTimeout:      timeout,
	})
}

func TestCreateSchedulingLink(t *testing.T) {
	var got schedulingLinkBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scheduling_links" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"resource":{"booking_url":"https://calendly.com/d/abc-123","owner":"` + got.Owner + `","owner_type":"EventType"}}`))
	}))
	defer srv.Close()

	link, err := newTestClient(srv.URL, time.Second).CreateSchedulingLink(context.Background(), LinkRequest{
		OwnerURI:     "https://api.calendly.com/event_types/DANA",
		SubmissionID: "sub-1",
		FormID:       "form-1",
		ClientID:     "client-1",
		InviteeName:  "Acme Corp",
		InviteeEmail: "hiring@acme.test",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if got.MaxEventCount != 1 || got.OwnerType != "EventType" || got.Owner != "https://api.calendly.com/event_types/DANA" {
		t.Fatalf("unexpected request body %+v", got)
	}

	u, err := url.Parse(link.BookingURL)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("a1") != "sub-1" || q.Get("a2") != "form-1" || q.Get("a3") != "client-1" {
		t.Fatalf("missing correlation params in %s", link.BookingURL)
	}
	if q.Get("name") != "Acme Corp" || q.Get("email") != "hiring@acme.test" {
		t.Fatalf("missing invitee prefill in %s", link.BookingURL)
	}
}

func TestCreateSchedulingLink_DefaultOwner(t *testing.T) {
	var got schedulingLinkBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"resource":{"booking_url":"https://calendly.com/d/xyz"}}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL, time.Second).CreateSchedulingLink(context.Background(), LinkRequest{SubmissionID: "s"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Owner != "https://api.calendly.com/event_types/DEFAULT" {
		t.Fatalf("expected configured default owner, got %q", got.Owner)
	}
}

func TestCreateSchedulingLink_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"title":"Permission Denied","message":"You do not have permission"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).CreateSchedulingLink(context.Background(), LinkRequest{SubmissionID: "s"})
	if !httperr.IsKind(err, httperr.KindGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestCreateSchedulingLink_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestClient(srv.URL, 50*time.Millisecond).CreateSchedulingLink(context.Background(), LinkRequest{SubmissionID: "s"})
	if !httperr.IsBusiness(err, "calendly_timeout") {
		t.Fatalf("expected calendly_timeout, got %v", err)
	}
}
