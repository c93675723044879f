package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/finzie/booking-coordinator/internal/domain/submission"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/models"
)

type SubmissionGormRepository struct {
	db *gorm.DB
}

func NewSubmissionGormRepository(db *gorm.DB) *SubmissionGormRepository {
	return &SubmissionGormRepository{db: db}
}

// --------------------------------------------------
// Submission
// --------------------------------------------------

func (r *SubmissionGormRepository) GetSubmission(
	ctx context.Context,
	id string,
) (*models.Submission, error) {

	var s models.Submission
	if err := conn(ctx, r.db).First(&s, "id = ?", id).Error; err != nil {
		return nil, submissionErr(err)
	}
	return &s, nil
}

func (r *SubmissionGormRepository) GetSubmissionWithForm(
	ctx context.Context,
	id string,
) (*models.Submission, error) {

	var s models.Submission
	if err := conn(ctx, r.db).
		Preload("Form.Client").
		First(&s, "id = ?", id).Error; err != nil {
		return nil, submissionErr(err)
	}
	return &s, nil
}

func (r *SubmissionGormRepository) UpdateStatus(
	ctx context.Context,
	id string,
	from []submission.Status,
	to submission.Status,
	patch map[string]any,
) (bool, error) {

	if len(from) == 0 {
		return false, nil
	}

	states := make([]string, 0, len(from))
	for _, s := range from {
		states = append(states, string(s))
	}

	updates := map[string]any{}
	for k, v := range patch {
		updates[k] = v
	}
	updates["status"] = string(to)
	updates["updated_at"] = time.Now().UTC()

	res := conn(ctx, r.db).
		Model(&models.Submission{}).
		Where("id = ? AND status IN ?", id, states).
		Updates(updates)
	if res.Error != nil {
		return false, httperr.Persistence("submission_update_failed", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// --------------------------------------------------
// Freelancer
// --------------------------------------------------

func (r *SubmissionGormRepository) GetFreelancerByEmail(
	ctx context.Context,
	email string,
) (*models.Freelancer, error) {

	var f models.Freelancer
	if err := conn(ctx, r.db).
		Where("LOWER(email) = LOWER(?)", email).
		First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound("freelancer_not_found", "Freelancer not found")
		}
		return nil, httperr.Persistence("freelancer_lookup_failed", err)
	}
	return &f, nil
}

func submissionErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.NotFound("submission_not_found", "Submission not found")
	}
	return httperr.Persistence("submission_lookup_failed", err)
}

// Compile-time check
var _ submission.Repository = (*SubmissionGormRepository)(nil)
