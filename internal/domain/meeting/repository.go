package meeting

import (
	"context"
	"time"

	"github.com/finzie/booking-coordinator/internal/models"
)

type Repository interface {
	// GetByEventID returns nil, nil when no meeting has that event id.
	GetByEventID(
		ctx context.Context,
		eventID string,
	) (*models.Meeting, error)

	// FindPendingForSubmission returns the newest pending placeholder or nil.
	FindPendingForSubmission(
		ctx context.Context,
		submissionID string,
	) (*models.Meeting, error)

	Create(
		ctx context.Context,
		m *models.Meeting,
	) error

	// UpsertByEventID inserts m or refreshes the row sharing its event id.
	UpsertByEventID(
		ctx context.Context,
		m *models.Meeting,
	) error

	// UpdateByID rewrites the row with id; used to promote placeholders.
	UpdateByID(
		ctx context.Context,
		id string,
		patch map[string]any,
	) error

	// UpdateByEventID applies patch only while status is one of from.
	UpdateByEventID(
		ctx context.Context,
		eventID string,
		from []Status,
		patch map[string]any,
	) (bool, error)

	ListBySubmission(
		ctx context.Context,
		submissionID string,
	) ([]models.Meeting, error)

	// ExpirePending cancels pending rows created before cutoff.
	ExpirePending(
		ctx context.Context,
		cutoff time.Time,
		now time.Time,
		reason string,
	) (int64, error)
}
