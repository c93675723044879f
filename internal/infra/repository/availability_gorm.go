package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/finzie/booking-coordinator/internal/domain/availability"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/models"
)

type AvailabilityGormRepository struct {
	db *gorm.DB
}

func NewAvailabilityGormRepository(db *gorm.DB) *AvailabilityGormRepository {
	return &AvailabilityGormRepository{db: db}
}

func (r *AvailabilityGormRepository) GetBulkEntry(
	ctx context.Context,
	submissionID string,
) (*models.AvailabilityEntry, error) {

	var entry models.AvailabilityEntry
	err := conn(ctx, r.db).
		Where("submission_id = ? AND is_bulk_entry = ?", submissionID, true).
		Order("created_at DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, httperr.Persistence("availability_lookup_failed", err)
	}
	return &entry, nil
}

func (r *AvailabilityGormRepository) ListLegacyEntries(
	ctx context.Context,
	submissionID string,
) ([]models.AvailabilityEntry, error) {

	var rows []models.AvailabilityEntry
	if err := conn(ctx, r.db).
		Where("submission_id = ? AND is_bulk_entry = ?", submissionID, false).
		Order("date ASC, start_time ASC").
		Find(&rows).Error; err != nil {
		return nil, httperr.Persistence("availability_lookup_failed", err)
	}
	return rows, nil
}

func (r *AvailabilityGormRepository) ReplaceBulkEntry(
	ctx context.Context,
	entry *models.AvailabilityEntry,
) error {

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var prev int
		if err := tx.
			Model(&models.AvailabilityEntry{}).
			Where("submission_id = ? AND is_bulk_entry = ?", entry.SubmissionID, true).
			Select("COALESCE(MAX(version), 0)").
			Scan(&prev).Error; err != nil {
			return err
		}

		if err := tx.
			Where("submission_id = ? AND is_bulk_entry = ?", entry.SubmissionID, true).
			Delete(&models.AvailabilityEntry{}).Error; err != nil {
			return err
		}

		entry.ID = ""
		entry.IsBulkEntry = true
		entry.Version = prev + 1
		return tx.Create(entry).Error
	})
	if err != nil {
		return httperr.Persistence("availability_save_failed", err)
	}
	return nil
}

func (r *AvailabilityGormRepository) SaveSlots(
	ctx context.Context,
	entry *models.AvailabilityEntry,
) error {

	res := conn(ctx, r.db).
		Model(&models.AvailabilityEntry{}).
		Where("id = ? AND version = ?", entry.ID, entry.Version).
		Updates(map[string]any{
			"availability_slots": entry.Slots,
			"slot_count":         len(entry.Slots),
			"version":            entry.Version + 1,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return httperr.Persistence("availability_save_failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return httperr.Conflict("availability_changed", "Availability was changed concurrently, please retry")
	}
	entry.Version++
	return nil
}

func (r *AvailabilityGormRepository) SetLegacyBooked(
	ctx context.Context,
	entryID string,
	booked bool,
) error {

	status := models.SlotStatusAvailable
	if booked {
		status = models.SlotStatusBooked
	}

	if err := conn(ctx, r.db).
		Model(&models.AvailabilityEntry{}).
		Where("id = ? AND is_bulk_entry = ?", entryID, false).
		Updates(map[string]any{
			"status":     status,
			"is_booked":  booked,
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return httperr.Persistence("availability_save_failed", err)
	}
	return nil
}

// Compile-time check
var _ availability.Repository = (*AvailabilityGormRepository)(nil)
