package availability

import (
	"context"

	"github.com/finzie/booking-coordinator/internal/models"
)

type Repository interface {
	// GetBulkEntry returns nil, nil when the submission has no bulk row.
	GetBulkEntry(
		ctx context.Context,
		submissionID string,
	) (*models.AvailabilityEntry, error)

	ListLegacyEntries(
		ctx context.Context,
		submissionID string,
	) ([]models.AvailabilityEntry, error)

	// ReplaceBulkEntry swaps the submission's bulk row for entry in one
	// transaction and bumps the version.
	ReplaceBulkEntry(
		ctx context.Context,
		entry *models.AvailabilityEntry,
	) error

	// SaveSlots rewrites the slots of a bulk row if its version is unchanged.
	SaveSlots(
		ctx context.Context,
		entry *models.AvailabilityEntry,
	) error

	SetLegacyBooked(
		ctx context.Context,
		entryID string,
		booked bool,
	) error
}

// Locker serializes writers on a key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
