package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/dexprofile/pkg/model"
)

// StoredProfile represents the profile_record table.
type StoredProfile struct {
	ID           int64              `gorm:"column:id;primaryKey;autoIncrement"`
	PID          string             `gorm:"column:pid;type:varchar(64);uniqueIndex"`
	PackageName  string             `gorm:"column:package_name;type:varchar(256);index"`
	VersionCode  int64              `gorm:"column:version_code"`
	Format       string             `gorm:"column:format;type:varchar(8)"`
	Status       model.RecordStatus `gorm:"column:status"`
	StatusInfo   string             `gorm:"column:status_info;type:text"`
	BlobKey      string             `gorm:"column:blob_key;type:varchar(512)"`
	COSBucket    string             `gorm:"column:cos_bucket;type:varchar(128)"`
	SizeBytes    int64              `gorm:"column:size_bytes"`
	DexCount     int                `gorm:"column:dex_count"`
	ClassCount   int                `gorm:"column:class_count"`
	MethodCount  int                `gorm:"column:method_count"`
	HotMethods   int                `gorm:"column:hot_methods"`
	UserName     string             `gorm:"column:user_name;type:varchar(128)"`
	MergeJobUUID *string            `gorm:"column:merge_job_uuid;type:varchar(64);index"`
	Summary      JSONField          `gorm:"column:summary;type:json"`
	CreateTime   time.Time          `gorm:"column:create_time;autoCreateTime"`
	UpdateTime   *time.Time         `gorm:"column:update_time;autoUpdateTime"`
}

// TableName returns the table name for StoredProfile.
func (StoredProfile) TableName() string {
	return "profile_record"
}

// ToModel converts StoredProfile to model.ProfileRecord.
func (p *StoredProfile) ToModel() *model.ProfileRecord {
	record := &model.ProfileRecord{
		ID:           p.ID,
		ProfileUUID:  p.PID,
		PackageName:  p.PackageName,
		VersionCode:  p.VersionCode,
		Format:       p.Format,
		Status:       p.Status,
		StatusInfo:   p.StatusInfo,
		BlobKey:      p.BlobKey,
		COSBucket:    p.COSBucket,
		SizeBytes:    p.SizeBytes,
		DexCount:     p.DexCount,
		ClassCount:   p.ClassCount,
		MethodCount:  p.MethodCount,
		HotMethods:   p.HotMethods,
		UserName:     p.UserName,
		MergeJobUUID: p.MergeJobUUID,
		CreateTime:   p.CreateTime,
		UpdateTime:   p.UpdateTime,
	}

	if p.Summary != nil {
		summary := &model.ProfileSummary{}
		if err := json.Unmarshal(p.Summary, summary); err == nil {
			record.Summary = summary
		}
	}

	return record
}

// fromModel converts a model.ProfileRecord to its table representation.
func fromModel(record *model.ProfileRecord) (*StoredProfile, error) {
	row := &StoredProfile{
		ID:           record.ID,
		PID:          record.ProfileUUID,
		PackageName:  record.PackageName,
		VersionCode:  record.VersionCode,
		Format:       record.Format,
		Status:       record.Status,
		StatusInfo:   record.StatusInfo,
		BlobKey:      record.BlobKey,
		COSBucket:    record.COSBucket,
		SizeBytes:    record.SizeBytes,
		DexCount:     record.DexCount,
		ClassCount:   record.ClassCount,
		MethodCount:  record.MethodCount,
		HotMethods:   record.HotMethods,
		UserName:     record.UserName,
		MergeJobUUID: record.MergeJobUUID,
		CreateTime:   record.CreateTime,
		UpdateTime:   record.UpdateTime,
	}

	if record.Summary != nil {
		summaryJSON, err := json.Marshal(record.Summary)
		if err != nil {
			return nil, err
		}
		row.Summary = summaryJSON
	}

	return row, nil
}

// MergeJobRow represents the merge_job table.
type MergeJobRow struct {
	JobUUID     string          `gorm:"column:job_uuid;type:varchar(64);primaryKey"`
	SourceUUIDs JSONField       `gorm:"column:source_uuids;type:json"`
	ResultUUID  string          `gorm:"column:result_uuid;type:varchar(64)"`
	Status      model.JobStatus `gorm:"column:status"`
	EndTime     *time.Time      `gorm:"column:end_time"`
}

// TableName returns the table name for MergeJobRow.
func (MergeJobRow) TableName() string {
	return "merge_job"
}

// ToMergeJob converts MergeJobRow to MergeJob.
func (m *MergeJobRow) ToMergeJob() (*MergeJob, error) {
	job := &MergeJob{
		JobUUID:    m.JobUUID,
		ResultUUID: m.ResultUUID,
		Status:     m.Status,
	}

	if m.SourceUUIDs != nil {
		if err := json.Unmarshal(m.SourceUUIDs, &job.SourceUUIDs); err != nil {
			return nil, err
		}
	}

	return job, nil
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
