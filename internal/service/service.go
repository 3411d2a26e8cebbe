// Package service ties the profile codec, catalog and blob storage together.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dexprofile/internal/codec"
	"github.com/dexprofile/internal/repository"
	"github.com/dexprofile/internal/storage"
	"github.com/dexprofile/internal/transcode"
	"github.com/dexprofile/pkg/config"
	apperrors "github.com/dexprofile/pkg/errors"
	"github.com/dexprofile/pkg/model"
	"github.com/dexprofile/pkg/parallel"
	"github.com/dexprofile/pkg/profile"
	"github.com/dexprofile/pkg/utils"
)

const tracerName = "dexprofile/service"

// ProfileService is the main application service for importing, exporting
// and merging profile blobs.
type ProfileService struct {
	config   *config.Config
	logger   utils.Logger
	repos    *repository.Repositories
	profiles repository.ProfileRepository
	jobs     repository.MergeJobRepository
	store    storage.Storage
	tracer   trace.Tracer
}

// New creates a new ProfileService. Call Initialize before use.
func New(cfg *config.Config, logger utils.Logger) *ProfileService {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &ProfileService{
		config: cfg,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// NewWithBackends creates a ProfileService with pre-built backends. Used by
// tests and by callers that manage their own connections.
func NewWithBackends(cfg *config.Config, logger utils.Logger, profiles repository.ProfileRepository, jobs repository.MergeJobRepository, store storage.Storage) *ProfileService {
	if logger == nil {
		logger = &utils.NullLogger{}
	}

	return &ProfileService{
		config:   cfg,
		logger:   logger,
		profiles: profiles,
		jobs:     jobs,
		store:    store,
		tracer:   otel.Tracer(tracerName),
	}
}

// Initialize connects the database and storage backends.
func (s *ProfileService) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing service components...")

	if err := s.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	s.logger.Info("Service components initialized successfully")
	return nil
}

// initDatabase initializes the database connection and repositories.
func (s *ProfileService) initDatabase() error {
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	dbConfig := &repository.DBConfig{
		Type:     s.config.Database.Type,
		Host:     s.config.Database.Host,
		Port:     s.config.Database.Port,
		Database: s.config.Database.Database,
		User:     s.config.Database.User,
		Password: s.config.Database.Password,
		MaxConns: s.config.Database.MaxConns,
	}

	gormDB, err := repository.NewGormDB(dbConfig)
	if err != nil {
		return err
	}

	if err := repository.Migrate(gormDB); err != nil {
		return fmt.Errorf("failed to migrate catalog tables: %w", err)
	}

	s.repos = repository.NewRepositories(gormDB, s.config.Database.Type)
	s.profiles = s.repos.Profile
	s.jobs = s.repos.MergeJob
	s.logger.Info("Database connection established")

	return nil
}

// initStorage initializes the blob storage backend.
func (s *ProfileService) initStorage() error {
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return err
	}

	s.store = store
	s.logger.Info("Storage initialized")

	return nil
}

// ImportOptions carries caller-supplied metadata for an import.
type ImportOptions struct {
	PackageName  string
	VersionCode  int64
	UserName     string
	MergeJobUUID *string
}

// Import decodes a profile blob, catalogs its metadata and archives the raw
// bytes. On decode or upload failure the catalog row is marked failed with
// the error message.
func (s *ProfileService) Import(ctx context.Context, data []byte, opts ImportOptions) (*model.ProfileRecord, error) {
	ctx, span := s.tracer.Start(ctx, "profile.import",
		trace.WithAttributes(
			attribute.String("profile.package", opts.PackageName),
			attribute.Int("profile.size_bytes", len(data)),
		))
	defer span.End()

	if len(data) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeEmptyFile, "profile data is empty", apperrors.ErrEmptyFile)
	}

	timer := utils.NewTimer("import", utils.WithLogger(s.logger))

	decodePhase := timer.Start("decode")
	version, err := codec.DetectVersion(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDecodeError, "unrecognized profile format", err)
	}
	p, err := codec.Decode(data)
	decodePhase.Stop()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDecodeError, "failed to decode profile", err)
	}

	summary := model.Summarize(p, version.String())

	record := model.NewProfileRecord(uuid.NewString(), opts.PackageName, opts.VersionCode)
	record.Format = version.String()
	record.UserName = opts.UserName
	record.MergeJobUUID = opts.MergeJobUUID
	record.DexCount = p.Len()
	record.ClassCount = p.ClassCount()
	record.MethodCount = p.MethodCount()
	record.HotMethods = p.HotMethodCount()
	record.Summary = summary

	catalogPhase := timer.Start("catalog")
	err = s.profiles.Create(ctx, record)
	catalogPhase.Stop()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to catalog profile", err)
	}

	span.SetAttributes(attribute.String("profile.uuid", record.ProfileUUID))

	key := record.DefaultBlobKey()
	uploadPhase := timer.Start("upload")
	err = s.store.Upload(ctx, key, bytes.NewReader(data))
	uploadPhase.Stop()
	if err != nil {
		if updErr := s.profiles.UpdateStatusWithInfo(ctx, record.ID, model.RecordStatusFailed, err.Error()); updErr != nil {
			s.logger.Error("Failed to record upload failure for %s: %v", record.ProfileUUID, updErr)
		}
		return nil, apperrors.Wrap(apperrors.CodeUploadError, "failed to archive profile blob", err)
	}

	if err := s.profiles.MarkStored(ctx, record.ID, key, int64(len(data))); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to mark profile stored", err)
	}
	record.Status = model.RecordStatusStored
	record.BlobKey = key
	record.SizeBytes = int64(len(data))

	if opts.MergeJobUUID != nil {
		if err := s.jobs.CheckAndCompleteIfReady(ctx, *opts.MergeJobUUID); err != nil {
			s.logger.Error("Failed to update merge job %s: %v", *opts.MergeJobUUID, err)
		}
	}

	s.logger.Info("Imported %s profile %s (%d dex files, %d hot methods, %d bytes)",
		record.Format, record.ProfileUUID, record.DexCount, record.HotMethods, record.SizeBytes)
	timer.PrintSummary()

	return record, nil
}

// ImportFile imports a profile from the local filesystem.
func (s *ProfileService) ImportFile(ctx context.Context, path string, opts ImportOptions) (*model.ProfileRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}
	return s.Import(ctx, data, opts)
}

// FileImportResult holds the outcome of one file in a batch import.
type FileImportResult struct {
	Path   string
	Record *model.ProfileRecord
	Err    error
}

// ImportFiles imports several profile files concurrently. Per-file failures
// are reported in the result slice and do not abort the batch.
func (s *ProfileService) ImportFiles(ctx context.Context, paths []string, opts ImportOptions) []FileImportResult {
	ctx, span := s.tracer.Start(ctx, "profile.import_batch",
		trace.WithAttributes(attribute.Int("profile.batch_size", len(paths))))
	defer span.End()

	workers := s.config.Import.WorkerCount
	pool := parallel.NewWorkerPool[string, *model.ProfileRecord](
		parallel.DefaultPoolConfig().WithWorkers(workers))

	results := pool.ExecuteFunc(ctx, paths, func(ctx context.Context, path string) (*model.ProfileRecord, error) {
		return s.ImportFile(ctx, path, opts)
	})

	out := make([]FileImportResult, len(results))
	for i, r := range results {
		out[i] = FileImportResult{Path: r.Input, Record: r.Result, Err: r.Error}
	}
	return out
}

// Export fetches a stored profile blob and transcodes it to the requested
// wire format version.
func (s *ProfileService) Export(ctx context.Context, profileUUID string, target codec.Version) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "profile.export",
		trace.WithAttributes(
			attribute.String("profile.uuid", profileUUID),
			attribute.String("profile.target_version", target.String()),
		))
	defer span.End()

	record, err := s.profiles.GetByUUID(ctx, profileUUID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "profile lookup failed", err)
	}
	if !record.IsStored() {
		return nil, apperrors.New(apperrors.CodeInvalidInput,
			fmt.Sprintf("profile %s has no stored blob (status %s)", profileUUID, record.Status))
	}

	data, err := s.fetchBlob(ctx, record.BlobKey)
	if err != nil {
		return nil, err
	}

	res, err := transcode.Convert(data, target)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDecodeError, "failed to transcode profile", err)
	}

	return res.Data, nil
}

// Merge resolves a merge job: it decodes every stored source profile, merges
// them into one and imports the result as a new catalog entry.
func (s *ProfileService) Merge(ctx context.Context, jobUUID string) (*model.ProfileRecord, error) {
	ctx, span := s.tracer.Start(ctx, "profile.merge",
		trace.WithAttributes(attribute.String("merge.job_uuid", jobUUID)))
	defer span.End()

	job, err := s.jobs.GetJob(ctx, jobUUID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "merge job lookup failed", err)
	}
	if len(job.SourceUUIDs) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "merge job has no source profiles")
	}

	outstanding, err := s.jobs.GetUnstoredSourceCount(ctx, jobUUID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to check merge sources", err)
	}
	if outstanding > 0 {
		return nil, apperrors.New(apperrors.CodeInvalidInput,
			fmt.Sprintf("merge job %s has %d sources not yet stored", jobUUID, outstanding))
	}

	var (
		sources     []*profile.Profile
		packageName string
		versionCode int64
	)
	for _, sourceUUID := range job.SourceUUIDs {
		record, err := s.profiles.GetByUUID(ctx, sourceUUID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, "merge source lookup failed", err)
		}

		data, err := s.fetchBlob(ctx, record.BlobKey)
		if err != nil {
			return nil, err
		}

		p, err := codec.Decode(data)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDecodeError,
				fmt.Sprintf("failed to decode merge source %s", sourceUUID), err)
		}

		sources = append(sources, p)
		packageName = record.PackageName
		versionCode = record.VersionCode
	}

	merged, err := profile.Merge(sources...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMergeError, "failed to merge profiles", err)
	}

	version, err := codec.ParseVersion(s.config.Profile.DefaultVersion)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "invalid default profile version", err)
	}

	data, err := codec.Encode(merged, version)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeEncodeError, "failed to encode merged profile", err)
	}

	record, err := s.Import(ctx, data, ImportOptions{
		PackageName: packageName,
		VersionCode: versionCode,
	})
	if err != nil {
		return nil, err
	}

	if err := s.jobs.SetJobResult(ctx, jobUUID, record.ProfileUUID); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to record merge result", err)
	}
	if err := s.jobs.UpdateJobStatus(ctx, jobUUID, model.JobStatusCompleted); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to complete merge job", err)
	}

	s.logger.Info("Merged %d profiles into %s for job %s", len(sources), record.ProfileUUID, jobUUID)

	return record, nil
}

// ProcessPending claims pending catalog rows and finishes their upload from
// the configured data directory. Rows another worker claimed are skipped.
func (s *ProfileService) ProcessPending(ctx context.Context) (int, error) {
	records, err := s.profiles.ListPending(ctx, s.config.Import.BatchSize)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to list pending profiles", err)
	}

	processed := 0
	for _, record := range records {
		claimed, err := s.profiles.ClaimPending(ctx, record.ID)
		if err != nil {
			return processed, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to claim profile", err)
		}
		if !claimed {
			continue
		}

		localPath := filepath.Join(s.config.GetProfileDir(record.ProfileUUID), "profile.prof")
		key := record.DefaultBlobKey()
		if err := s.store.UploadFile(ctx, key, localPath); err != nil {
			if updErr := s.profiles.UpdateStatusWithInfo(ctx, record.ID, model.RecordStatusFailed, err.Error()); updErr != nil {
				s.logger.Error("Failed to record upload failure for %s: %v", record.ProfileUUID, updErr)
			}
			continue
		}

		info, statErr := os.Stat(localPath)
		var size int64
		if statErr == nil {
			size = info.Size()
		}
		if err := s.profiles.MarkStored(ctx, record.ID, key, size); err != nil {
			return processed, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to mark profile stored", err)
		}
		processed++
	}

	return processed, nil
}

// fetchBlob downloads and fully reads a stored blob.
func (s *ProfileService) fetchBlob(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.store.Download(ctx, key)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDownloadError, "failed to fetch profile blob", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDownloadError, "failed to read profile blob", err)
	}
	return data, nil
}

// HealthCheck verifies the database connection.
func (s *ProfileService) HealthCheck(ctx context.Context) error {
	if s.repos != nil {
		if err := s.repos.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}
	return nil
}

// Close releases the database connection.
func (s *ProfileService) Close() error {
	if s.repos != nil {
		return s.repos.Close()
	}
	return nil
}
