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

type SetSelectedInput struct {
	SubmissionID string
	Notes        string
}

// SetSelected marks a submission as chosen by the client who owns the form.
type SetSelected struct {
	repo  domain.Repository
	audit audit.Recorder
	now   func() time.Time
}

func NewSetSelected(
	repo domain.Repository,
	audit audit.Recorder,
) *SetSelected {
	return &SetSelected{
		repo:  repo,
		audit: audit,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (uc *SetSelected) Execute(
	ctx context.Context,
	caller auth.Identity,
	in SetSelectedInput,
) (*models.Submission, error) {

	s, err := uc.repo.GetSubmissionWithForm(ctx, in.SubmissionID)
	if err != nil {
		return nil, err
	}

	if !domain.CanManage(caller, s) {
		return nil, httperr.Forbidden("forbidden", "Only the client who owns this form can select a freelancer")
	}

	from := s.Status
	now := uc.now()

	patch := map[string]any{
		"is_selected":     true,
		"selection_notes": in.Notes,
		"selected_by":     caller.Email,
	}
	// Reselecting keeps the original selection time.
	if s.SelectedAt != nil {
		patch["selected_at"] = *s.SelectedAt
	}

	if _, err := domain.Advance(ctx, uc.repo, s, domain.EventSelect, now, patch); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		SubmissionID: s.ID,
		Actor:        caller.Email,
		Action:       "submission_selected",
		Entity:       "submission",
		EntityID:     s.ID,
		Metadata:     map[string]string{"from": from, "to": s.Status},
	})

	return uc.repo.GetSubmissionWithForm(ctx, s.ID)
}
