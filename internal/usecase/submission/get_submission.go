package submission

import (
	"context"

	"github.com/finzie/booking-coordinator/internal/auth"
	domain "github.com/finzie/booking-coordinator/internal/domain/submission"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/models"
)

type GetSubmission struct {
	repo domain.Repository
}

func NewGetSubmission(repo domain.Repository) *GetSubmission {
	return &GetSubmission{repo: repo}
}

func (uc *GetSubmission) Execute(
	ctx context.Context,
	caller auth.Identity,
	id string,
) (*models.Submission, error) {

	s, err := uc.repo.GetSubmissionWithForm(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanView(caller, s) {
		return nil, httperr.Forbidden("forbidden", "You do not have access to this submission")
	}

	return s, nil
}
