package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dexprofile/pkg/model"
)

// PostgresMergeJobRepository implements MergeJobRepository for PostgreSQL.
type PostgresMergeJobRepository struct {
	db *sql.DB
}

// NewPostgresMergeJobRepository creates a new PostgresMergeJobRepository.
func NewPostgresMergeJobRepository(db *sql.DB) *PostgresMergeJobRepository {
	return &PostgresMergeJobRepository{db: db}
}

// GetJob retrieves a merge job by its UUID.
func (r *PostgresMergeJobRepository) GetJob(ctx context.Context, jobUUID string) (*MergeJob, error) {
	query := `
		SELECT job_uuid, source_uuids, COALESCE(result_uuid, ''), status
		FROM merge_job
		WHERE job_uuid = $1
	`

	var sourceUUIDsJSON []byte
	job := &MergeJob{}

	err := r.db.QueryRowContext(ctx, query, jobUUID).Scan(
		&job.JobUUID, &sourceUUIDsJSON, &job.ResultUUID, &job.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("merge job not found: %s", jobUUID)
		}
		return nil, fmt.Errorf("failed to get merge job: %w", err)
	}

	if sourceUUIDsJSON != nil {
		if err := json.Unmarshal(sourceUUIDsJSON, &job.SourceUUIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source_uuids: %w", err)
		}
	}

	return job, nil
}

// SetJobResult records the UUID of the merged profile atomically.
func (r *PostgresMergeJobRepository) SetJobResult(ctx context.Context, jobUUID string, resultUUID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the row for update
	var existingResult sql.NullString
	query := `SELECT result_uuid FROM merge_job WHERE job_uuid = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, jobUUID).Scan(&existingResult)
	if err != nil {
		return fmt.Errorf("failed to lock merge job: %w", err)
	}

	updateQuery := `UPDATE merge_job SET result_uuid = $1 WHERE job_uuid = $2`
	_, err = tx.ExecContext(ctx, updateQuery, resultUUID, jobUUID)
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}

	return tx.Commit()
}

// UpdateJobStatus updates the status of a merge job.
func (r *PostgresMergeJobRepository) UpdateJobStatus(ctx context.Context, jobUUID string, status model.JobStatus) error {
	query := `UPDATE merge_job SET status = $1 WHERE job_uuid = $2`
	if status == model.JobStatusCompleted {
		query = `UPDATE merge_job SET status = $1, end_time = $2 WHERE job_uuid = $3`
		_, err := r.db.ExecContext(ctx, query, status, time.Now(), jobUUID)
		return err
	}

	_, err := r.db.ExecContext(ctx, query, status, jobUUID)
	return err
}

// GetUnstoredSourceCount returns the count of source profiles not yet stored.
func (r *PostgresMergeJobRepository) GetUnstoredSourceCount(ctx context.Context, jobUUID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM profile_record
		WHERE merge_job_uuid = $1 AND status IN ($2, $3)
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, jobUUID, model.RecordStatusPending, model.RecordStatusImporting).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unstored sources: %w", err)
	}

	return count, nil
}

// CheckAndCompleteIfReady checks if all sources are stored and updates the job status.
func (r *PostgresMergeJobRepository) CheckAndCompleteIfReady(ctx context.Context, jobUUID string) error {
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

// MySQLMergeJobRepository implements MergeJobRepository for MySQL.
type MySQLMergeJobRepository struct {
	db *sql.DB
}

// NewMySQLMergeJobRepository creates a new MySQLMergeJobRepository.
func NewMySQLMergeJobRepository(db *sql.DB) *MySQLMergeJobRepository {
	return &MySQLMergeJobRepository{db: db}
}

// GetJob retrieves a merge job by its UUID.
func (r *MySQLMergeJobRepository) GetJob(ctx context.Context, jobUUID string) (*MergeJob, error) {
	query := `
		SELECT job_uuid, source_uuids, COALESCE(result_uuid, ''), status
		FROM merge_job
		WHERE job_uuid = ?
	`

	var sourceUUIDsJSON []byte
	job := &MergeJob{}

	err := r.db.QueryRowContext(ctx, query, jobUUID).Scan(
		&job.JobUUID, &sourceUUIDsJSON, &job.ResultUUID, &job.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("merge job not found: %s", jobUUID)
		}
		return nil, fmt.Errorf("failed to get merge job: %w", err)
	}

	if sourceUUIDsJSON != nil {
		if err := json.Unmarshal(sourceUUIDsJSON, &job.SourceUUIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source_uuids: %w", err)
		}
	}

	return job, nil
}

// SetJobResult records the UUID of the merged profile atomically.
func (r *MySQLMergeJobRepository) SetJobResult(ctx context.Context, jobUUID string, resultUUID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the row for update
	var existingResult sql.NullString
	query := `SELECT result_uuid FROM merge_job WHERE job_uuid = ? FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, jobUUID).Scan(&existingResult)
	if err != nil {
		return fmt.Errorf("failed to lock merge job: %w", err)
	}

	updateQuery := `UPDATE merge_job SET result_uuid = ? WHERE job_uuid = ?`
	_, err = tx.ExecContext(ctx, updateQuery, resultUUID, jobUUID)
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}

	return tx.Commit()
}

// UpdateJobStatus updates the status of a merge job.
func (r *MySQLMergeJobRepository) UpdateJobStatus(ctx context.Context, jobUUID string, status model.JobStatus) error {
	query := `UPDATE merge_job SET status = ? WHERE job_uuid = ?`
	if status == model.JobStatusCompleted {
		query = `UPDATE merge_job SET status = ?, end_time = ? WHERE job_uuid = ?`
		_, err := r.db.ExecContext(ctx, query, status, time.Now(), jobUUID)
		return err
	}

	_, err := r.db.ExecContext(ctx, query, status, jobUUID)
	return err
}

// GetUnstoredSourceCount returns the count of source profiles not yet stored.
func (r *MySQLMergeJobRepository) GetUnstoredSourceCount(ctx context.Context, jobUUID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM profile_record
		WHERE merge_job_uuid = ? AND status IN (?, ?)
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, jobUUID, model.RecordStatusPending, model.RecordStatusImporting).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unstored sources: %w", err)
	}

	return count, nil
}

// CheckAndCompleteIfReady checks if all sources are stored and updates the job status.
func (r *MySQLMergeJobRepository) CheckAndCompleteIfReady(ctx context.Context, jobUUID string) error {
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
