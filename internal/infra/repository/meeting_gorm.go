package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/finzie/booking-coordinator/internal/domain/meeting"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/models"
)

type MeetingGormRepository struct {
	db *gorm.DB
}

func NewMeetingGormRepository(db *gorm.DB) *MeetingGormRepository {
	return &MeetingGormRepository{db: db}
}

// columns refreshed when a booking is redelivered
var upsertColumns = []string{
	"status", "start_time", "end_time", "timezone",
	"invitee_name", "invitee_email", "meeting_url",
	"cancel_url", "reschedule_url", "client_id", "freelancer_id",
	"form_id", "submission_id", "raw_payload", "updated_at",
}

func (r *MeetingGormRepository) GetByEventID(
	ctx context.Context,
	eventID string,
) (*models.Meeting, error) {

	var m models.Meeting
	err := conn(ctx, r.db).Where("event_id = ?", eventID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, httperr.Persistence("meeting_lookup_failed", err)
	}
	return &m, nil
}

func (r *MeetingGormRepository) FindPendingForSubmission(
	ctx context.Context,
	submissionID string,
) (*models.Meeting, error) {

	var m models.Meeting
	err := conn(ctx, r.db).
		Where("submission_id = ? AND status = ?", submissionID, string(meeting.StatusPending)).
		Order("created_at DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, httperr.Persistence("meeting_lookup_failed", err)
	}
	return &m, nil
}

func (r *MeetingGormRepository) Create(
	ctx context.Context,
	m *models.Meeting,
) error {
	if err := conn(ctx, r.db).Create(m).Error; err != nil {
		if httperr.IsUniqueViolation(err) {
			return httperr.Conflict("meeting_exists", "A meeting with this event id already exists")
		}
		return httperr.Persistence("meeting_save_failed", err)
	}
	return nil
}

func (r *MeetingGormRepository) UpsertByEventID(
	ctx context.Context,
	m *models.Meeting,
) error {
	if err := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		Create(m).Error; err != nil {
		return httperr.Persistence("meeting_save_failed", err)
	}
	return nil
}

func (r *MeetingGormRepository) UpdateByID(
	ctx context.Context,
	id string,
	patch map[string]any,
) error {
	patch["updated_at"] = time.Now().UTC()
	if err := conn(ctx, r.db).
		Model(&models.Meeting{}).
		Where("id = ?", id).
		Updates(patch).Error; err != nil {
		if httperr.IsUniqueViolation(err) {
			return httperr.Conflict("meeting_exists", "A meeting with this event id already exists")
		}
		return httperr.Persistence("meeting_save_failed", err)
	}
	return nil
}

func (r *MeetingGormRepository) UpdateByEventID(
	ctx context.Context,
	eventID string,
	from []meeting.Status,
	patch map[string]any,
) (bool, error) {

	if len(from) == 0 {
		return false, nil
	}
	states := make([]string, 0, len(from))
	for _, s := range from {
		states = append(states, string(s))
	}
	patch["updated_at"] = time.Now().UTC()

	res := conn(ctx, r.db).
		Model(&models.Meeting{}).
		Where("event_id = ? AND status IN ?", eventID, states).
		Updates(patch)
	if res.Error != nil {
		return false, httperr.Persistence("meeting_save_failed", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *MeetingGormRepository) ListBySubmission(
	ctx context.Context,
	submissionID string,
) ([]models.Meeting, error) {

	var out []models.Meeting
	if err := conn(ctx, r.db).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, httperr.Persistence("meeting_lookup_failed", err)
	}
	return out, nil
}

func (r *MeetingGormRepository) ExpirePending(
	ctx context.Context,
	cutoff time.Time,
	now time.Time,
	reason string,
) (int64, error) {

	res := conn(ctx, r.db).
		Model(&models.Meeting{}).
		Where("status = ? AND created_at < ?", string(meeting.StatusPending), cutoff).
		Updates(map[string]any{
			"status":        string(meeting.StatusCanceled),
			"canceled_at":   now,
			"cancel_reason": reason,
			"updated_at":    now,
		})
	if res.Error != nil {
		return 0, httperr.Persistence("meeting_expire_failed", res.Error)
	}
	return res.RowsAffected, nil
}

// Compile-time check
var _ meeting.Repository = (*MeetingGormRepository)(nil)
