// Package repository provides database abstraction for the profile catalog.
package repository

import (
	"context"

	"github.com/dexprofile/pkg/model"
)

// ProfileRepository defines the interface for profile catalog operations.
type ProfileRepository interface {
	// Create inserts a new catalog record and fills in its ID.
	Create(ctx context.Context, record *model.ProfileRecord) error

	// GetByID retrieves a record by its ID.
	GetByID(ctx context.Context, id int64) (*model.ProfileRecord, error)

	// GetByUUID retrieves a record by its profile UUID.
	GetByUUID(ctx context.Context, uuid string) (*model.ProfileRecord, error)

	// ListByPackage retrieves the newest records for a package.
	ListByPackage(ctx context.Context, packageName string, limit int) ([]*model.ProfileRecord, error)

	// ListPending retrieves records whose blob has not been uploaded yet.
	ListPending(ctx context.Context, limit int) ([]*model.ProfileRecord, error)

	// UpdateStatus updates the status of a record.
	UpdateStatus(ctx context.Context, id int64, status model.RecordStatus) error

	// UpdateStatusWithInfo updates the status with additional info.
	UpdateStatusWithInfo(ctx context.Context, id int64, status model.RecordStatus, info string) error

	// MarkStored records the uploaded blob location and size and moves the
	// record to the stored state.
	MarkStored(ctx context.Context, id int64, blobKey string, sizeBytes int64) error

	// ClaimPending attempts to claim a pending record for import
	// (prevents concurrent workers from processing the same record).
	ClaimPending(ctx context.Context, id int64) (bool, error)
}

// MergeJobRepository defines the interface for merge job operations.
type MergeJobRepository interface {
	// GetJob retrieves a merge job by its UUID.
	GetJob(ctx context.Context, jobUUID string) (*MergeJob, error)

	// SetJobResult records the UUID of the merged profile atomically.
	SetJobResult(ctx context.Context, jobUUID string, resultUUID string) error

	// UpdateJobStatus updates the status of a merge job.
	UpdateJobStatus(ctx context.Context, jobUUID string, status model.JobStatus) error

	// GetUnstoredSourceCount returns the count of source profiles whose
	// blob has not been stored yet.
	GetUnstoredSourceCount(ctx context.Context, jobUUID string) (int, error)

	// CheckAndCompleteIfReady marks the job running or completed depending
	// on whether sources are still outstanding.
	CheckAndCompleteIfReady(ctx context.Context, jobUUID string) error
}

// MergeJob groups several catalog records into one merged profile.
type MergeJob struct {
	JobUUID     string          `json:"job_uuid" db:"job_uuid"`
	SourceUUIDs []string        `json:"source_uuids" db:"source_uuids"`
	ResultUUID  string          `json:"result_uuid" db:"result_uuid"`
	Status      model.JobStatus `json:"status" db:"status"`
}
