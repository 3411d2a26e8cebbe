package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dexprofile/pkg/model"
)

const postgresProfileColumns = `id, pid, package_name, version_code, format, status,
	   COALESCE(status_info, ''), COALESCE(blob_key, ''), COALESCE(cos_bucket, ''),
	   size_bytes, dex_count, class_count, method_count, hot_methods,
	   COALESCE(user_name, ''), merge_job_uuid, summary, create_time, update_time`

// PostgresProfileRepository implements ProfileRepository for PostgreSQL.
type PostgresProfileRepository struct {
	db *sql.DB
}

// NewPostgresProfileRepository creates a new PostgresProfileRepository.
func NewPostgresProfileRepository(db *sql.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// Create inserts a new catalog record and fills in its ID.
func (r *PostgresProfileRepository) Create(ctx context.Context, record *model.ProfileRecord) error {
	var summaryJSON []byte
	if record.Summary != nil {
		var err error
		summaryJSON, err = json.Marshal(record.Summary)
		if err != nil {
			return fmt.Errorf("failed to marshal profile summary: %w", err)
		}
	}

	query := `
		INSERT INTO profile_record (pid, package_name, version_code, format, status,
			status_info, blob_key, cos_bucket, size_bytes, dex_count, class_count,
			method_count, hot_methods, user_name, merge_job_uuid, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		record.ProfileUUID, record.PackageName, record.VersionCode, record.Format,
		record.Status, record.StatusInfo, record.BlobKey, record.COSBucket,
		record.SizeBytes, record.DexCount, record.ClassCount, record.MethodCount,
		record.HotMethods, record.UserName, record.MergeJobUUID, summaryJSON,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to create profile record: %w", err)
	}

	return nil
}

// GetByID retrieves a record by its ID.
func (r *PostgresProfileRepository) GetByID(ctx context.Context, id int64) (*model.ProfileRecord, error) {
	query := `SELECT ` + postgresProfileColumns + ` FROM profile_record WHERE id = $1`

	record, err := scanProfileRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return record, nil
}

// GetByUUID retrieves a record by its profile UUID.
func (r *PostgresProfileRepository) GetByUUID(ctx context.Context, uuid string) (*model.ProfileRecord, error) {
	query := `SELECT ` + postgresProfileColumns + ` FROM profile_record WHERE pid = $1`

	record, err := scanProfileRow(r.db.QueryRowContext(ctx, query, uuid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return record, nil
}

// ListByPackage retrieves the newest records for a package.
func (r *PostgresProfileRepository) ListByPackage(ctx context.Context, packageName string, limit int) ([]*model.ProfileRecord, error) {
	query := `
		SELECT ` + postgresProfileColumns + `
		FROM profile_record
		WHERE package_name = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, packageName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	return scanProfileRows(rows)
}

// ListPending retrieves records whose blob has not been uploaded yet.
func (r *PostgresProfileRepository) ListPending(ctx context.Context, limit int) ([]*model.ProfileRecord, error) {
	query := `
		SELECT ` + postgresProfileColumns + `
		FROM profile_record
		WHERE status = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, model.RecordStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending profiles: %w", err)
	}
	defer rows.Close()

	return scanProfileRows(rows)
}

// UpdateStatus updates the status of a record.
func (r *PostgresProfileRepository) UpdateStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	query := `UPDATE profile_record SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile not found: %d", id)
	}

	return nil
}

// UpdateStatusWithInfo updates the status with additional info.
func (r *PostgresProfileRepository) UpdateStatusWithInfo(ctx context.Context, id int64, status model.RecordStatus, info string) error {
	query := `UPDATE profile_record SET status = $1, status_info = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, info, id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile not found: %d", id)
	}

	return nil
}

// MarkStored records the uploaded blob location and size.
func (r *PostgresProfileRepository) MarkStored(ctx context.Context, id int64, blobKey string, sizeBytes int64) error {
	query := `UPDATE profile_record SET status = $1, blob_key = $2, size_bytes = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, model.RecordStatusStored, blobKey, sizeBytes, id)
	if err != nil {
		return fmt.Errorf("failed to mark profile stored: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile not found: %d", id)
	}

	return nil
}

// ClaimPending attempts to claim a pending record using FOR UPDATE NOWAIT.
func (r *PostgresProfileRepository) ClaimPending(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Try to lock the row with FOR UPDATE NOWAIT
	var status model.RecordStatus
	query := `SELECT status FROM profile_record WHERE id = $1 AND status = $2 FOR UPDATE NOWAIT`
	err = tx.QueryRowContext(ctx, query, id, model.RecordStatusPending).Scan(&status)
	if err != nil {
		// Could not lock - either not found or already locked
		return false, nil
	}

	// Update status to importing
	updateQuery := `UPDATE profile_record SET status = $1 WHERE id = $2`
	_, err = tx.ExecContext(ctx, updateQuery, model.RecordStatusImporting, id)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}
