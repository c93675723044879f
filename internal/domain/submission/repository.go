package submission

import (
	"context"

	"github.com/finzie/booking-coordinator/internal/models"
)

type Repository interface {
	// -------- Submission --------
	GetSubmission(
		ctx context.Context,
		id string,
	) (*models.Submission, error)

	// GetSubmissionWithForm preloads Form and Form.Client.
	GetSubmissionWithForm(
		ctx context.Context,
		id string,
	) (*models.Submission, error)

	// UpdateStatus moves the submission to `to` only while its current status
	// is one of `from`. It reports whether a row was updated.
	UpdateStatus(
		ctx context.Context,
		id string,
		from []Status,
		to Status,
		patch map[string]any,
	) (bool, error)

	// -------- Freelancer --------
	GetFreelancerByEmail(
		ctx context.Context,
		email string,
	) (*models.Freelancer, error)
}
