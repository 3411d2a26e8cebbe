// Package model defines the core data structures used throughout the application.
package model

import (
	"fmt"
	"time"
)

// RecordStatus represents the lifecycle state of a stored profile.
type RecordStatus int

const (
	RecordStatusPending   RecordStatus = 0 // Registered, blob not uploaded yet
	RecordStatusStored    RecordStatus = 1 // Blob uploaded and catalogued
	RecordStatusMerged    RecordStatus = 2 // Superseded by a merged profile
	RecordStatusFailed    RecordStatus = 3 // Import or upload failed
	RecordStatusArchived  RecordStatus = 4 // Retained for history only
	RecordStatusImporting RecordStatus = 5 // Claimed by an import worker
)

// String returns the string representation of RecordStatus.
func (s RecordStatus) String() string {
	switch s {
	case RecordStatusPending:
		return "pending"
	case RecordStatusStored:
		return "stored"
	case RecordStatusMerged:
		return "merged"
	case RecordStatusFailed:
		return "failed"
	case RecordStatusArchived:
		return "archived"
	case RecordStatusImporting:
		return "importing"
	default:
		return "unknown"
	}
}

// ProfileRecord is the catalog entry for one imported profile blob.
type ProfileRecord struct {
	ID          int64        `json:"id" db:"id"`
	ProfileUUID string       `json:"pid" db:"pid"`
	PackageName string       `json:"package_name" db:"package_name"`
	VersionCode int64        `json:"version_code" db:"version_code"`
	Format      string       `json:"format" db:"format"`
	Status      RecordStatus `json:"status" db:"status"`
	StatusInfo  string       `json:"status_info" db:"status_info"`
	BlobKey     string       `json:"blob_key" db:"blob_key"`
	COSBucket   string       `json:"cos_bucket" db:"cos_bucket"`
	SizeBytes   int64        `json:"size_bytes" db:"size_bytes"`
	DexCount    int          `json:"dex_count" db:"dex_count"`
	ClassCount  int          `json:"class_count" db:"class_count"`
	MethodCount int          `json:"method_count" db:"method_count"`
	HotMethods  int          `json:"hot_methods" db:"hot_methods"`
	UserName    string       `json:"user_name" db:"user_name"`

	// MergeJobUUID links this record to the merge job consuming it, if any.
	MergeJobUUID *string `json:"merge_job_uuid" db:"merge_job_uuid"`

	// Summary is the decoded-profile digest captured at import time.
	Summary *ProfileSummary `json:"summary,omitempty" db:"summary"`

	CreateTime time.Time  `json:"create_time" db:"create_time"`
	UpdateTime *time.Time `json:"update_time" db:"update_time"`
}

// IsStored returns true once the blob is uploaded and catalogued.
func (r *ProfileRecord) IsStored() bool {
	return r.Status == RecordStatusStored
}

// DefaultBlobKey returns the storage key used when none was assigned,
// partitioned by package so bucket listings stay navigable.
func (r *ProfileRecord) DefaultBlobKey() string {
	return fmt.Sprintf("profiles/%s/%d/%s.prof", r.PackageName, r.VersionCode, r.ProfileUUID)
}

// NewProfileRecord creates a pending catalog entry for a profile blob.
func NewProfileRecord(uuid, packageName string, versionCode int64) *ProfileRecord {
	return &ProfileRecord{
		ProfileUUID: uuid,
		PackageName: packageName,
		VersionCode: versionCode,
		Status:      RecordStatusPending,
		CreateTime:  time.Now(),
	}
}
