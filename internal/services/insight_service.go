package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"health-vault-server/internal/ai"
	"health-vault-server/internal/metrics"
	"health-vault-server/internal/models"
)

// AnalysisClient is the summarization service contract.
type AnalysisClient interface {
	Analyze(ctx context.Context, input ai.AnalysisInput) (*ai.AnalysisResult, error)
}

// RecordInsight is the user-facing analysis of one record. Available is false
// when the summarization service failed; the operation itself still succeeds.
type RecordInsight struct {
	Available       bool     `json:"available"`
	Summary         string   `json:"summary,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// InsightService produces AI analyses of individual health records.
type InsightService struct {
	records   RecordRepository
	users     UserDirectory
	guard     AccessGuard
	client    AnalysisClient
	collector *metrics.Collector
	log       *zap.Logger
}

// NewInsightService creates a new InsightService.
func NewInsightService(records RecordRepository, users UserDirectory, guard AccessGuard, client AnalysisClient, collector *metrics.Collector, log *zap.Logger) *InsightService {
	return &InsightService{
		records:   records,
		users:     users,
		guard:     guard,
		client:    client,
		collector: collector,
		log:       log,
	}
}

// AnalyzeRecord runs the summarization service over one record the caller is
// allowed to read, enriched with the owner's vitals. Record lookup and
// authorization failures are real errors; a summarization failure degrades to
// an unavailable insight instead.
func (s *InsightService) AnalyzeRecord(ctx context.Context, caller Caller, recordID string) (*RecordInsight, error) {
	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	ownsRecord := caller.Role == models.RolePatient && caller.ID == record.PatientID
	doctorMayRead := caller.Role == models.RoleDoctor && s.guard.CanRead(ctx, caller.ID, record.PatientID)
	if !ownsRecord && !doctorMayRead {
		return nil, ErrPermissionDenied
	}

	input := ai.AnalysisInput{
		Content:    record.Content,
		RecordType: string(record.Type),
	}

	// Vitals enrich the prompt but are not essential to it.
	if owner, err := s.users.GetByID(ctx, record.PatientID); err == nil {
		input.WeightKg = owner.WeightKg
		input.HeightCm = owner.HeightCm
		input.BMI = owner.BMI
	} else {
		s.log.Warn("could not load record owner for vitals", zap.Error(err))
	}

	result, err := s.client.Analyze(ctx, input)
	if err != nil {
		if !errors.Is(err, ai.ErrUnavailable) {
			s.log.Error("unexpected analysis failure", zap.Error(err))
		}
		s.collector.AIAnalysesTotal.WithLabelValues("unavailable").Inc()
		return &RecordInsight{Available: false}, nil
	}

	s.collector.AIAnalysesTotal.WithLabelValues("ok").Inc()
	return &RecordInsight{
		Available:       true,
		Summary:         result.Summary,
		Recommendations: result.Recommendations,
	}, nil
}
