package submission_test

import (
	"context"
	"testing"
	"time"

	"github.com/finzie/booking-coordinator/internal/domain/submission"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/infra/repository"
	"github.com/finzie/booking-coordinator/internal/models"
	"github.com/finzie/booking-coordinator/internal/testdb"
)

func TestAdvance_StampsAndPatches(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, "availability_set", true)
	repo := repository.NewSubmissionGormRepository(db)
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

	s := fx.Submission
	next, err := submission.Advance(context.Background(), repo, &s, submission.EventLinkShared, now, map[string]any{
		"calendly_link": "https://calendly.com/d/abc",
	})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next != submission.StatusCalendlyLinkShared || s.Status != string(next) {
		t.Fatalf("unexpected status %s / %s", next, s.Status)
	}

	var stored models.Submission
	db.First(&stored, "id = ?", s.ID)
	if stored.Status != "calendly_link_shared" || stored.CalendlyLink != "https://calendly.com/d/abc" {
		t.Fatalf("unexpected row %+v", stored)
	}
	if stored.CalendlyLinkSharedAt == nil || !stored.CalendlyLinkSharedAt.Equal(now) {
		t.Fatalf("expected calendly_link_shared_at stamped, got %v", stored.CalendlyLinkSharedAt)
	}
}

func TestAdvance_RejectsAndDetectsRaces(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, "new", false)
	repo := repository.NewSubmissionGormRepository(db)
	ctx := context.Background()

	s := fx.Submission
	if _, err := submission.Advance(ctx, repo, &s, submission.EventMeetingBooked, time.Now(), nil); !httperr.IsKind(err, httperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// Another writer moved the row; the stale copy must not overwrite it.
	db.Model(&models.Submission{}).Where("id = ?", s.ID).Update("status", "completed")
	if _, err := submission.Advance(ctx, repo, &s, submission.EventSelect, time.Now(), nil); !httperr.IsBusiness(err, "status_changed") {
		t.Fatalf("expected status_changed conflict, got %v", err)
	}

	var stored models.Submission
	db.First(&stored, "id = ?", s.ID)
	if stored.Status != "completed" {
		t.Fatalf("stale write leaked, status %s", stored.Status)
	}
}
