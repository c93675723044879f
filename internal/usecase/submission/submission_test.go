package submission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/finzie/booking-coordinator/internal/audit"
	"github.com/finzie/booking-coordinator/internal/auth"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/infra/repository"
	"github.com/finzie/booking-coordinator/internal/testdb"
)

type auditSpy struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *auditSpy) Dispatch(ev audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

var (
	client     = auth.Identity{ID: "c-1", Email: "hiring@acme.test", Role: auth.RoleClient}
	otherOwner = auth.Identity{ID: "c-2", Email: "other@corp.test", Role: auth.RoleClient}
	freelancer = auth.Identity{ID: "f-1", Email: "DEV@freelance.test", Role: auth.RoleFreelancer}
	admin      = auth.Identity{ID: "a-1", Email: "ops@finzie.test", Role: auth.RoleAdmin}
)

func TestGetSubmission_Access(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, "new", false)
	uc := NewGetSubmission(repository.NewSubmissionGormRepository(db))
	ctx := context.Background()

	for _, who := range []auth.Identity{client, freelancer, admin} {
		s, err := uc.Execute(ctx, who, fx.Submission.ID)
		if err != nil {
			t.Fatalf("%s: %v", who.Email, err)
		}
		if s.Form == nil || s.Form.Client == nil {
			t.Fatalf("expected form and client to be loaded")
		}
	}

	if _, err := uc.Execute(ctx, otherOwner, fx.Submission.ID); !httperr.IsKind(err, httperr.KindForbidden) {
		t.Fatalf("expected forbidden for another client, got %v", err)
	}
	if _, err := uc.Execute(ctx, admin, "missing"); !httperr.IsKind(err, httperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetSelected(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, "new", false)
	spy := &auditSpy{}
	uc := NewSetSelected(repository.NewSubmissionGormRepository(db), spy)
	first := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return first }
	ctx := context.Background()

	if _, err := uc.Execute(ctx, freelancer, SetSelectedInput{SubmissionID: fx.Submission.ID}); !httperr.IsKind(err, httperr.KindForbidden) {
		t.Fatalf("expected freelancer to be refused, got %v", err)
	}

	s, err := uc.Execute(ctx, client, SetSelectedInput{SubmissionID: fx.Submission.ID, Notes: "great portfolio"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if s.Status != "selected" || !s.IsSelected || s.SelectionNotes != "great portfolio" || s.SelectedBy != client.Email {
		t.Fatalf("unexpected submission %+v", s)
	}
	if s.SelectedAt == nil || !s.SelectedAt.Equal(first) {
		t.Fatalf("unexpected selected_at %v", s.SelectedAt)
	}

	uc.now = func() time.Time { return first.Add(time.Hour) }
	s, err = uc.Execute(ctx, client, SetSelectedInput{SubmissionID: fx.Submission.ID, Notes: "still great"})
	if err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if s.Status != "selected" || !s.SelectedAt.Equal(first) {
		t.Fatalf("reselect must not move status or selected_at, got %s %v", s.Status, s.SelectedAt)
	}
	if len(spy.events) != 2 || spy.events[0].Action != "submission_selected" {
		t.Fatalf("unexpected audit trail %+v", spy.events)
	}
}

func TestSetSelected_RejectedAfterLinkShared(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, "calendly_link_shared", true)
	uc := NewSetSelected(repository.NewSubmissionGormRepository(db), &auditSpy{})

	if _, err := uc.Execute(context.Background(), admin, SetSelectedInput{SubmissionID: fx.Submission.ID}); !httperr.IsKind(err, httperr.KindForbidden) {
		t.Fatalf("expected forbidden transition, got %v", err)
	}
}

func TestCompleteMeeting(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, "calendly_link_shared", true)
	uc := NewCompleteMeeting(repository.NewSubmissionGormRepository(db), &auditSpy{})
	ctx := context.Background()

	if _, err := uc.Execute(ctx, client, fx.Submission.ID); !httperr.IsKind(err, httperr.KindForbidden) {
		t.Fatalf("expected forbidden before a meeting is scheduled, got %v", err)
	}

	db.Exec("UPDATE freelancer_submissions SET status = 'meeting_scheduled' WHERE id = ?", fx.Submission.ID)

	s, err := uc.Execute(ctx, client, fx.Submission.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if s.Status != "completed" || s.CompletedAt == nil {
		t.Fatalf("unexpected submission %+v", s)
	}

	again, err := uc.Execute(ctx, client, fx.Submission.ID)
	if err != nil {
		t.Fatalf("complete twice: %v", err)
	}
	if !again.CompletedAt.Equal(*s.CompletedAt) {
		t.Fatalf("second completion moved completed_at")
	}
}
