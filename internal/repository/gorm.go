package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dexprofile/pkg/model"
)

// GormProfileRepository implements ProfileRepository using GORM.
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository.
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// Create inserts a new catalog record and fills in its ID.
func (r *GormProfileRepository) Create(ctx context.Context, record *model.ProfileRecord) error {
	row, err := fromModel(record)
	if err != nil {
		return fmt.Errorf("failed to marshal profile summary: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to create profile record: %w", err)
	}

	record.ID = row.ID
	return nil
}

// GetByID retrieves a record by its ID.
func (r *GormProfileRepository) GetByID(ctx context.Context, id int64) (*model.ProfileRecord, error) {
	var row StoredProfile

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return row.ToModel(), nil
}

// GetByUUID retrieves a record by its profile UUID.
func (r *GormProfileRepository) GetByUUID(ctx context.Context, uuid string) (*model.ProfileRecord, error) {
	var row StoredProfile

	err := r.db.WithContext(ctx).Where("pid = ?", uuid).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return row.ToModel(), nil
}

// ListByPackage retrieves the newest records for a package.
func (r *GormProfileRepository) ListByPackage(ctx context.Context, packageName string, limit int) ([]*model.ProfileRecord, error) {
	var rows []StoredProfile

	err := r.db.WithContext(ctx).
		Where("package_name = ?", packageName).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}

	result := make([]*model.ProfileRecord, len(rows))
	for i, row := range rows {
		result[i] = row.ToModel()
	}

	return result, nil
}

// ListPending retrieves records whose blob has not been uploaded yet.
func (r *GormProfileRepository) ListPending(ctx context.Context, limit int) ([]*model.ProfileRecord, error) {
	var rows []StoredProfile

	err := r.db.WithContext(ctx).
		Where("status = ?", model.RecordStatusPending).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query pending profiles: %w", err)
	}

	result := make([]*model.ProfileRecord, len(rows))
	for i, row := range rows {
		result[i] = row.ToModel()
	}

	return result, nil
}

// UpdateStatus updates the status of a record.
func (r *GormProfileRepository) UpdateStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	result := r.db.WithContext(ctx).
		Model(&StoredProfile{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("profile not found: %d", id)
	}

	return nil
}

// UpdateStatusWithInfo updates the status with additional info.
func (r *GormProfileRepository) UpdateStatusWithInfo(ctx context.Context, id int64, status model.RecordStatus, info string) error {
	result := r.db.WithContext(ctx).
		Model(&StoredProfile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"status_info": info,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("profile not found: %d", id)
	}

	return nil
}

// MarkStored records the uploaded blob location and size.
func (r *GormProfileRepository) MarkStored(ctx context.Context, id int64, blobKey string, sizeBytes int64) error {
	result := r.db.WithContext(ctx).
		Model(&StoredProfile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.RecordStatusStored,
			"blob_key":   blobKey,
			"size_bytes": sizeBytes,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark profile stored: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("profile not found: %d", id)
	}

	return nil
}

// ClaimPending attempts to claim a pending record using FOR UPDATE.
func (r *GormProfileRepository) ClaimPending(ctx context.Context, id int64) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row StoredProfile

		// Try to lock the row with FOR UPDATE
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status = ?", id, model.RecordStatusPending).
			First(&row).Error

		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}

		return tx.Model(&StoredProfile{}).
			Where("id = ?", id).
			Update("status", model.RecordStatusImporting).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to claim profile: %w", err)
	}

	return true, nil
}

// GormMergeJobRepository implements MergeJobRepository using GORM.
type GormMergeJobRepository struct {
	db *gorm.DB
}

// NewGormMergeJobRepository creates a new GormMergeJobRepository.
func NewGormMergeJobRepository(db *gorm.DB) *GormMergeJobRepository {
	return &GormMergeJobRepository{db: db}
}

// GetJob retrieves a merge job by its UUID.
func (r *GormMergeJobRepository) GetJob(ctx context.Context, jobUUID string) (*MergeJob, error) {
	var row MergeJobRow

	err := r.db.WithContext(ctx).Where("job_uuid = ?", jobUUID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("merge job not found: %s", jobUUID)
		}
		return nil, fmt.Errorf("failed to get merge job: %w", err)
	}

	return row.ToMergeJob()
}

// SetJobResult records the UUID of the merged profile atomically.
func (r *GormMergeJobRepository) SetJobResult(ctx context.Context, jobUUID string, resultUUID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row MergeJobRow

		// Lock the row for update
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("job_uuid = ?", jobUUID).
			First(&row).Error
		if err != nil {
			return fmt.Errorf("failed to lock merge job: %w", err)
		}

		return tx.Model(&MergeJobRow{}).
			Where("job_uuid = ?", jobUUID).
			Update("result_uuid", resultUUID).Error
	})
}

// UpdateJobStatus updates the status of a merge job.
func (r *GormMergeJobRepository) UpdateJobStatus(ctx context.Context, jobUUID string, status model.JobStatus) error {
	updates := map[string]interface{}{
		"status": status,
	}

	if status == model.JobStatusCompleted {
		updates["end_time"] = time.Now()
	}

	return r.db.WithContext(ctx).
		Model(&MergeJobRow{}).
		Where("job_uuid = ?", jobUUID).
		Updates(updates).Error
}

// GetUnstoredSourceCount returns the count of source profiles whose blob
// has not been stored yet.
func (r *GormMergeJobRepository) GetUnstoredSourceCount(ctx context.Context, jobUUID string) (int, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&StoredProfile{}).
		Where("merge_job_uuid = ? AND status IN (?, ?)", jobUUID, model.RecordStatusPending, model.RecordStatusImporting).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count unstored sources: %w", err)
	}

	return int(count), nil
}

// CheckAndCompleteIfReady marks the job running or completed depending on
// whether sources are still outstanding.
func (r *GormMergeJobRepository) CheckAndCompleteIfReady(ctx context.Context, jobUUID string) error {
	count, err := r.GetUnstoredSourceCount(ctx, jobUUID)
	if err != nil {
		return err
	}

	var newStatus model.JobStatus
	if count == 0 {
		newStatus = model.JobStatusCompleted
	} else {
		newStatus = model.JobStatusRunning
	}

	return r.UpdateJobStatus(ctx, jobUUID, newStatus)
}
