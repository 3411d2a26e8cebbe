package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dexprofile/pkg/model"
)

const mysqlProfileColumns = `id, pid, package_name, version_code, format, status,
	   COALESCE(status_info, ''), COALESCE(blob_key, ''), COALESCE(cos_bucket, ''),
	   size_bytes, dex_count, class_count, method_count, hot_methods,
	   COALESCE(user_name, ''), merge_job_uuid, summary, create_time, update_time`

// MySQLProfileRepository implements ProfileRepository for MySQL.
type MySQLProfileRepository struct {
	db *sql.DB
}

// NewMySQLProfileRepository creates a new MySQLProfileRepository.
func NewMySQLProfileRepository(db *sql.DB) *MySQLProfileRepository {
	return &MySQLProfileRepository{db: db}
}

// Create inserts a new catalog record and fills in its ID.
func (r *MySQLProfileRepository) Create(ctx context.Context, record *model.ProfileRecord) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		record.ProfileUUID, record.PackageName, record.VersionCode, record.Format,
		record.Status, record.StatusInfo, record.BlobKey, record.COSBucket,
		record.SizeBytes, record.DexCount, record.ClassCount, record.MethodCount,
		record.HotMethods, record.UserName, record.MergeJobUUID, summaryJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert id: %w", err)
	}
	record.ID = id

	return nil
}

// GetByID retrieves a record by its ID.
func (r *MySQLProfileRepository) GetByID(ctx context.Context, id int64) (*model.ProfileRecord, error) {
	query := `SELECT ` + mysqlProfileColumns + ` FROM profile_record WHERE id = ?`

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
func (r *MySQLProfileRepository) GetByUUID(ctx context.Context, uuid string) (*model.ProfileRecord, error) {
	query := `SELECT ` + mysqlProfileColumns + ` FROM profile_record WHERE pid = ?`

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
func (r *MySQLProfileRepository) ListByPackage(ctx context.Context, packageName string, limit int) ([]*model.ProfileRecord, error) {
	query := `
		SELECT ` + mysqlProfileColumns + `
		FROM profile_record
		WHERE package_name = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, packageName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	return scanProfileRows(rows)
}

// ListPending retrieves records whose blob has not been uploaded yet.
func (r *MySQLProfileRepository) ListPending(ctx context.Context, limit int) ([]*model.ProfileRecord, error) {
	query := `
		SELECT ` + mysqlProfileColumns + `
		FROM profile_record
		WHERE status = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, model.RecordStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending profiles: %w", err)
	}
	defer rows.Close()

	return scanProfileRows(rows)
}

// UpdateStatus updates the status of a record.
func (r *MySQLProfileRepository) UpdateStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	query := `UPDATE profile_record SET status = ? WHERE id = ?`
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
func (r *MySQLProfileRepository) UpdateStatusWithInfo(ctx context.Context, id int64, status model.RecordStatus, info string) error {
	query := `UPDATE profile_record SET status = ?, status_info = ? WHERE id = ?`
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
func (r *MySQLProfileRepository) MarkStored(ctx context.Context, id int64, blobKey string, sizeBytes int64) error {
	query := `UPDATE profile_record SET status = ?, blob_key = ?, size_bytes = ? WHERE id = ?`
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

// ClaimPending attempts to claim a pending record using FOR UPDATE.
func (r *MySQLProfileRepository) ClaimPending(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Try to lock the row with FOR UPDATE NOWAIT (MySQL 8.0+)
	// For older MySQL versions, use regular FOR UPDATE with a timeout
	var status model.RecordStatus
	query := `SELECT status FROM profile_record WHERE id = ? AND status = ? FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, id, model.RecordStatusPending).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows || strings.Contains(err.Error(), "lock wait timeout") {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock profile: %w", err)
	}

	// Update status to importing
	updateQuery := `UPDATE profile_record SET status = ? WHERE id = ?`
	_, err = tx.ExecContext(ctx, updateQuery, model.RecordStatusImporting, id)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// profileRowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type profileRowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfileRow(row profileRowScanner) (*model.ProfileRecord, error) {
	record := &model.ProfileRecord{}
	var mergeJobUUID sql.NullString
	var summaryJSON []byte
	var updateTime sql.NullTime

	err := row.Scan(
		&record.ID, &record.ProfileUUID, &record.PackageName, &record.VersionCode,
		&record.Format, &record.Status, &record.StatusInfo, &record.BlobKey,
		&record.COSBucket, &record.SizeBytes, &record.DexCount, &record.ClassCount,
		&record.MethodCount, &record.HotMethods, &record.UserName, &mergeJobUUID,
		&summaryJSON, &record.CreateTime, &updateTime,
	)
	if err != nil {
		return nil, err
	}

	if mergeJobUUID.Valid {
		record.MergeJobUUID = &mergeJobUUID.String
	}
	if updateTime.Valid {
		record.UpdateTime = &updateTime.Time
	}

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &record.Summary); err != nil {
			return nil, fmt.Errorf("failed to parse profile summary: %w", err)
		}
	}

	return record, nil
}

func scanProfileRows(rows *sql.Rows) ([]*model.ProfileRecord, error) {
	var records []*model.ProfileRecord

	for rows.Next() {
		record, err := scanProfileRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
