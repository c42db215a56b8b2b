package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"health-vault-server/internal/ai"
	"health-vault-server/internal/models"
)

func insightRecordRepo() *MockRecordRepository {
	return &MockRecordRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.HealthRecord, error) {
			return &models.HealthRecord{
				BaseModel: models.BaseModel{ID: id},
				PatientID: testPatientID,
				Type:      models.RecordTypeLabReport,
				Content:   "Fasting glucose 6.2 mmol/L.",
			}, nil
		},
	}
}

func TestInsightService_AnalyzeRecord_Owner(t *testing.T) {
	weight := 82.5
	users := &MockUserDirectory{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{BaseModel: models.BaseModel{ID: id}, Role: models.RolePatient, WeightKg: &weight}, nil
		},
	}
	var gotInput ai.AnalysisInput
	client := &MockAnalysisClient{
		AnalyzeFunc: func(ctx context.Context, input ai.AnalysisInput) (*ai.AnalysisResult, error) {
			gotInput = input
			return &ai.AnalysisResult{
				Summary:         "Slightly elevated fasting glucose.",
				Recommendations: []string{"Repeat the test in three months."},
			}, nil
		},
	}
	svc := NewInsightService(insightRecordRepo(), users, &MockAccessGuard{}, client, newTestCollector(), newTestLogger())

	insight, err := svc.AnalyzeRecord(context.Background(), testPatient(), "rec-1")
	assert.NoError(t, err)
	assert.True(t, insight.Available)
	assert.Equal(t, "Slightly elevated fasting glucose.", insight.Summary)
	assert.Len(t, insight.Recommendations, 1)
	assert.Equal(t, "lab_report", gotInput.RecordType)
	assert.NotNil(t, gotInput.WeightKg, "owner vitals enrich the prompt")
}

func TestInsightService_AnalyzeRecord_ConnectedDoctor(t *testing.T) {
	guard := &MockAccessGuard{
		CanReadFunc: func(ctx context.Context, doctorID, patientID string) bool {
			return doctorID == testDoctorID && patientID == testPatientID
		},
	}
	users := &MockUserDirectory{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{BaseModel: models.BaseModel{ID: id}, Role: models.RolePatient}, nil
		},
	}
	client := &MockAnalysisClient{
		AnalyzeFunc: func(ctx context.Context, input ai.AnalysisInput) (*ai.AnalysisResult, error) {
			return &ai.AnalysisResult{Summary: "ok"}, nil
		},
	}
	svc := NewInsightService(insightRecordRepo(), users, guard, client, newTestCollector(), newTestLogger())

	insight, err := svc.AnalyzeRecord(context.Background(), testDoctor(), "rec-1")
	assert.NoError(t, err)
	assert.True(t, insight.Available)
}

func TestInsightService_AnalyzeRecord_UnconnectedCallerDenied(t *testing.T) {
	svc := NewInsightService(insightRecordRepo(), &MockUserDirectory{}, &MockAccessGuard{}, &MockAnalysisClient{}, newTestCollector(), newTestLogger())

	callers := []Caller{
		testDoctor(),
		{ID: "other-patient", Role: models.RolePatient},
	}
	for _, caller := range callers {
		_, err := svc.AnalyzeRecord(context.Background(), caller, "rec-1")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	}
}

func TestInsightService_AnalyzeRecord_UnknownRecord(t *testing.T) {
	records := &MockRecordRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.HealthRecord, error) {
			return nil, ErrNotFound
		},
	}
	svc := NewInsightService(records, &MockUserDirectory{}, &MockAccessGuard{}, &MockAnalysisClient{}, newTestCollector(), newTestLogger())

	_, err := svc.AnalyzeRecord(context.Background(), testPatient(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsightService_AnalyzeRecord_DegradesWhenBackendDown(t *testing.T) {
	users := &MockUserDirectory{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{BaseModel: models.BaseModel{ID: id}, Role: models.RolePatient}, nil
		},
	}
	client := &MockAnalysisClient{
		AnalyzeFunc: func(ctx context.Context, input ai.AnalysisInput) (*ai.AnalysisResult, error) {
			return nil, ai.ErrUnavailable
		},
	}
	svc := NewInsightService(insightRecordRepo(), users, &MockAccessGuard{}, client, newTestCollector(), newTestLogger())

	insight, err := svc.AnalyzeRecord(context.Background(), testPatient(), "rec-1")
	assert.NoError(t, err, "a summarization outage is not an operation failure")
	assert.False(t, insight.Available)
	assert.Empty(t, insight.Summary)
}

func TestInsightService_AnalyzeRecord_ToleratesOwnerLookupFailure(t *testing.T) {
	users := &MockUserDirectory{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, ErrNotFound
		},
	}
	client := &MockAnalysisClient{
		AnalyzeFunc: func(ctx context.Context, input ai.AnalysisInput) (*ai.AnalysisResult, error) {
			assert.Nil(t, input.WeightKg)
			return &ai.AnalysisResult{Summary: "ok"}, nil
		},
	}
	svc := NewInsightService(insightRecordRepo(), users, &MockAccessGuard{}, client, newTestCollector(), newTestLogger())

	insight, err := svc.AnalyzeRecord(context.Background(), testPatient(), "rec-1")
	assert.NoError(t, err)
	assert.True(t, insight.Available)
}
