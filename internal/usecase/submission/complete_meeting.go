package submission

import (
	"context"
	"time"

	"github.com/finzie/booking-coordinator/internal/audit"
	"github.com/finzie/booking-coordinator/internal/auth"
	domain "github.com/finzie/booking-coordinator/internal/domain/submission"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/models"
)

type CompleteMeeting struct {
	repo  domain.Repository
	audit audit.Recorder
	now   func() time.Time
}

func NewCompleteMeeting(
	repo domain.Repository,
	audit audit.Recorder,
) *CompleteMeeting {
	return &CompleteMeeting{
		repo:  repo,
		audit: audit,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (uc *CompleteMeeting) Execute(
	ctx context.Context,
	caller auth.Identity,
	submissionID string,
) (*models.Submission, error) {

	s, err := uc.repo.GetSubmissionWithForm(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if !domain.CanManage(caller, s) {
		return nil, httperr.Forbidden("forbidden", "Only the client who owns this form can complete the meeting")
	}

	// Completing twice keeps the first completion time.
	var patch map[string]any
	if s.CompletedAt != nil {
		patch = map[string]any{"completed_at": *s.CompletedAt}
	}

	if _, err := domain.Advance(ctx, uc.repo, s, domain.EventMeetingCompleted, uc.now(), patch); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		SubmissionID: s.ID,
		Actor:        caller.Email,
		Action:       "meeting_completed",
		Entity:       "submission",
		EntityID:     s.ID,
	})

	return uc.repo.GetSubmissionWithForm(ctx, s.ID)
}
