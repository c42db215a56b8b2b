package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"health-vault-server/internal/ai"
	"health-vault-server/internal/metrics"
	"health-vault-server/internal/models"
)

func newTestCollector() *metrics.Collector {
	return metrics.NewCollector(prometheus.NewRegistry())
}

func newTestLogger() *zap.Logger {
	return zap.NewNop()
}

// --- MockConnectionRepository ---
var _ ConnectionRepository = (*MockConnectionRepository)(nil)

// MockConnectionRepository is a mock implementation of ConnectionRepository.
type MockConnectionRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.Connection, error)
	GetByPairFunc      func(ctx context.Context, doctorID, patientID string) (*models.Connection, error)
	CreateFunc         func(ctx context.Context, conn *models.Connection) error
	ReopenDeniedFunc   func(ctx context.Context, doctorID, patientID string) (*models.Connection, error)
	ResolvePendingFunc func(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, error)
	ListForUserFunc    func(ctx context.Context, userID string, status models.ConnectionStatus) ([]models.Connection, error)

	CreateCallCount         int32
	ResolvePendingCallCount int32
}

func (m *MockConnectionRepository) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("GetByIDFunc not implemented in mock")
}

func (m *MockConnectionRepository) GetByPair(ctx context.Context, doctorID, patientID string) (*models.Connection, error) {
	if m.GetByPairFunc != nil {
		return m.GetByPairFunc(ctx, doctorID, patientID)
	}
	return nil, errors.New("GetByPairFunc not implemented in mock")
}

func (m *MockConnectionRepository) Create(ctx context.Context, conn *models.Connection) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, conn)
	}
	return nil
}

func (m *MockConnectionRepository) ReopenDenied(ctx context.Context, doctorID, patientID string) (*models.Connection, error) {
	if m.ReopenDeniedFunc != nil {
		return m.ReopenDeniedFunc(ctx, doctorID, patientID)
	}
	return nil, errors.New("ReopenDeniedFunc not implemented in mock")
}

func (m *MockConnectionRepository) ResolvePending(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, error) {
	atomic.AddInt32(&m.ResolvePendingCallCount, 1)
	if m.ResolvePendingFunc != nil {
		return m.ResolvePendingFunc(ctx, id, status)
	}
	return nil, errors.New("ResolvePendingFunc not implemented in mock")
}

func (m *MockConnectionRepository) ListForUser(ctx context.Context, userID string, status models.ConnectionStatus) ([]models.Connection, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, userID, status)
	}
	return nil, nil
}

// --- MockUserDirectory ---
var _ UserDirectory = (*MockUserDirectory)(nil)

// MockUserDirectory is a mock implementation of UserDirectory.
type MockUserDirectory struct {
	GetByIDFunc func(ctx context.Context, id string) (*models.User, error)
}

func (m *MockUserDirectory) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("GetByIDFunc not implemented in mock")
}

// --- MockRecordRepository ---
var _ RecordRepository = (*MockRecordRepository)(nil)

// MockRecordRepository is a mock implementation of RecordRepository.
type MockRecordRepository struct {
	CreateFunc        func(ctx context.Context, record *models.HealthRecord) error
	GetByIDFunc       func(ctx context.Context, id string) (*models.HealthRecord, error)
	ListByPatientFunc func(ctx context.Context, patientID string) ([]models.HealthRecord, error)

	CreateCallCount int32
}

func (m *MockRecordRepository) Create(ctx context.Context, record *models.HealthRecord) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, record)
	}
	return nil
}

func (m *MockRecordRepository) GetByID(ctx context.Context, id string) (*models.HealthRecord, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("GetByIDFunc not implemented in mock")
}

func (m *MockRecordRepository) ListByPatient(ctx context.Context, patientID string) ([]models.HealthRecord, error) {
	if m.ListByPatientFunc != nil {
		return m.ListByPatientFunc(ctx, patientID)
	}
	return nil, nil
}

// --- MockShareRepository ---
var _ ShareRepository = (*MockShareRepository)(nil)

// MockShareRepository is a mock implementation of ShareRepository.
type MockShareRepository struct {
	CreateFunc  func(ctx context.Context, link *models.ShareLink) error
	GetByIDFunc func(ctx context.Context, id string) (*models.ShareLink, error)
}

func (m *MockShareRepository) Create(ctx context.Context, link *models.ShareLink) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, link)
	}
	return nil
}

func (m *MockShareRepository) GetByID(ctx context.Context, id string) (*models.ShareLink, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("GetByIDFunc not implemented in mock")
}

// --- MockAccessGuard ---
var _ AccessGuard = (*MockAccessGuard)(nil)

// MockAccessGuard is a mock implementation of AccessGuard.
type MockAccessGuard struct {
	CanReadFunc func(ctx context.Context, doctorID, patientID string) bool
}

func (m *MockAccessGuard) CanRead(ctx context.Context, doctorID, patientID string) bool {
	if m.CanReadFunc != nil {
		return m.CanReadFunc(ctx, doctorID, patientID)
	}
	return false
}

// --- MockAnalysisClient ---
var _ AnalysisClient = (*MockAnalysisClient)(nil)

// MockAnalysisClient is a mock implementation of AnalysisClient.
type MockAnalysisClient struct {
	AnalyzeFunc func(ctx context.Context, input ai.AnalysisInput) (*ai.AnalysisResult, error)
}

func (m *MockAnalysisClient) Analyze(ctx context.Context, input ai.AnalysisInput) (*ai.AnalysisResult, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, input)
	}
	return nil, errors.New("AnalyzeFunc not implemented in mock")
}
