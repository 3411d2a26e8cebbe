package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dexprofile/internal/repository"
	"github.com/dexprofile/pkg/model"
)

// MockProfileRepository is a mock implementation of the ProfileRepository interface.
type MockProfileRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockProfileRepository) Create(ctx context.Context, record *model.ProfileRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// GetByID mocks the GetByID method.
func (m *MockProfileRepository) GetByID(ctx context.Context, id int64) (*model.ProfileRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProfileRecord), args.Error(1)
}

// GetByUUID mocks the GetByUUID method.
func (m *MockProfileRepository) GetByUUID(ctx context.Context, uuid string) (*model.ProfileRecord, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProfileRecord), args.Error(1)
}

// ListByPackage mocks the ListByPackage method.
func (m *MockProfileRepository) ListByPackage(ctx context.Context, packageName string, limit int) ([]*model.ProfileRecord, error) {
	args := m.Called(ctx, packageName, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ProfileRecord), args.Error(1)
}

// ListPending mocks the ListPending method.
func (m *MockProfileRepository) ListPending(ctx context.Context, limit int) ([]*model.ProfileRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ProfileRecord), args.Error(1)
}

// UpdateStatus mocks the UpdateStatus method.
func (m *MockProfileRepository) UpdateStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// UpdateStatusWithInfo mocks the UpdateStatusWithInfo method.
func (m *MockProfileRepository) UpdateStatusWithInfo(ctx context.Context, id int64, status model.RecordStatus, info string) error {
	args := m.Called(ctx, id, status, info)
	return args.Error(0)
}

// MarkStored mocks the MarkStored method.
func (m *MockProfileRepository) MarkStored(ctx context.Context, id int64, blobKey string, sizeBytes int64) error {
	args := m.Called(ctx, id, blobKey, sizeBytes)
	return args.Error(0)
}

// ClaimPending mocks the ClaimPending method.
func (m *MockProfileRepository) ClaimPending(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// ExpectCreate sets up an expectation for Create.
func (m *MockProfileRepository) ExpectCreate(err error) *mock.Call {
	return m.On("Create", mock.Anything, mock.Anything).Return(err)
}

// ExpectGetByUUID sets up an expectation for GetByUUID.
func (m *MockProfileRepository) ExpectGetByUUID(uuid string, record *model.ProfileRecord, err error) *mock.Call {
	return m.On("GetByUUID", mock.Anything, uuid).Return(record, err)
}

// ExpectMarkStored sets up an expectation for MarkStored.
func (m *MockProfileRepository) ExpectMarkStored(id int64, err error) *mock.Call {
	return m.On("MarkStored", mock.Anything, id, mock.Anything, mock.Anything).Return(err)
}

// ExpectClaimPending sets up an expectation for ClaimPending.
func (m *MockProfileRepository) ExpectClaimPending(id int64, claimed bool, err error) *mock.Call {
	return m.On("ClaimPending", mock.Anything, id).Return(claimed, err)
}

// MockMergeJobRepository is a mock implementation of the MergeJobRepository interface.
type MockMergeJobRepository struct {
	mock.Mock
}

// GetJob mocks the GetJob method.
func (m *MockMergeJobRepository) GetJob(ctx context.Context, jobUUID string) (*repository.MergeJob, error) {
	args := m.Called(ctx, jobUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.MergeJob), args.Error(1)
}

// SetJobResult mocks the SetJobResult method.
func (m *MockMergeJobRepository) SetJobResult(ctx context.Context, jobUUID string, resultUUID string) error {
	args := m.Called(ctx, jobUUID, resultUUID)
	return args.Error(0)
}

// UpdateJobStatus mocks the UpdateJobStatus method.
func (m *MockMergeJobRepository) UpdateJobStatus(ctx context.Context, jobUUID string, status model.JobStatus) error {
	args := m.Called(ctx, jobUUID, status)
	return args.Error(0)
}

// GetUnstoredSourceCount mocks the GetUnstoredSourceCount method.
func (m *MockMergeJobRepository) GetUnstoredSourceCount(ctx context.Context, jobUUID string) (int, error) {
	args := m.Called(ctx, jobUUID)
	return args.Int(0), args.Error(1)
}

// CheckAndCompleteIfReady mocks the CheckAndCompleteIfReady method.
func (m *MockMergeJobRepository) CheckAndCompleteIfReady(ctx context.Context, jobUUID string) error {
	args := m.Called(ctx, jobUUID)
	return args.Error(0)
}

// ExpectGetJob sets up an expectation for GetJob.
func (m *MockMergeJobRepository) ExpectGetJob(jobUUID string, job *repository.MergeJob, err error) *mock.Call {
	return m.On("GetJob", mock.Anything, jobUUID).Return(job, err)
}

// ExpectSetJobResult sets up an expectation for SetJobResult.
func (m *MockMergeJobRepository) ExpectSetJobResult(jobUUID string, err error) *mock.Call {
	return m.On("SetJobResult", mock.Anything, jobUUID, mock.Anything).Return(err)
}
