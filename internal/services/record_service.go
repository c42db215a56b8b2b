package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"health-vault-server/internal/metrics"
	"health-vault-server/internal/models"
)

// RecordRepository is the persistence contract for the append-only record store.
type RecordRepository interface {
	// Create appends a new record. Records are never updated or deleted.
	Create(ctx context.Context, record *models.HealthRecord) error

	// GetByID returns a record by primary key. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*models.HealthRecord, error)

	// ListByPatient returns all records owned by the patient, ordered by
	// record date descending with ties broken by insertion order.
	ListByPatient(ctx context.Context, patientID string) ([]models.HealthRecord, error)
}

// AccessGuard gates every cross-account record read.
type AccessGuard interface {
	CanRead(ctx context.Context, doctorID, patientID string) bool
}

// AppendRecordCommand carries the caller-supplied fields of a new record.
type AppendRecordCommand struct {
	Type          models.RecordType
	Title         string
	Content       string
	RecordDate    string
	BloodPressure string
	PulseRate     *int
	AttachmentURL string
}

// RecordService implements the patient record store and the guarded
// cross-account read path.
type RecordService struct {
	records   RecordRepository
	guard     AccessGuard
	collector *metrics.Collector
	log       *zap.Logger
}

// NewRecordService creates a new RecordService.
func NewRecordService(records RecordRepository, guard AccessGuard, collector *metrics.Collector, log *zap.Logger) *RecordService {
	return &RecordService{
		records:   records,
		guard:     guard,
		collector: collector,
		log:       log,
	}
}

// Append validates and stores a new record owned by the given patient.
func (s *RecordService) Append(ctx context.Context, patientID string, cmd AppendRecordCommand) (*models.HealthRecord, error) {
	recordDate, err := validateAppendCommand(&cmd)
	if err != nil {
		return nil, err
	}

	record := &models.HealthRecord{
		PatientID:     patientID,
		Type:          cmd.Type,
		Title:         strings.TrimSpace(cmd.Title),
		Content:       cmd.Content,
		RecordDate:    recordDate,
		BloodPressure: strings.TrimSpace(cmd.BloodPressure),
		PulseRate:     cmd.PulseRate,
		AttachmentURL: cmd.AttachmentURL,
	}

	if err := s.records.Create(ctx, record); err != nil {
		s.log.Error("failed to append health record", zap.Error(err))
		return nil, fmt.Errorf("appending record: %w", err)
	}

	s.collector.RecordsCreated.Inc()
	s.log.Info("health record appended",
		zap.String("record_id", record.ID),
		zap.String("patient_id", patientID),
		zap.String("type", string(record.Type)),
	)
	return record, nil
}

// AppendVitalsAudit appends a system note documenting a vitals change on the
// patient's profile. Called whenever a profile update mutates vitals.
func (s *RecordService) AppendVitalsAudit(ctx context.Context, user *models.User) (*models.HealthRecord, error) {
	var parts []string
	if user.WeightKg != nil {
		parts = append(parts, fmt.Sprintf("weight %.1f kg", *user.WeightKg))
	}
	if user.HeightCm != nil {
		parts = append(parts, fmt.Sprintf("height %.1f cm", *user.HeightCm))
	}
	if user.BMI != nil {
		parts = append(parts, fmt.Sprintf("BMI %.2f", *user.BMI))
	}
	if user.BloodGroup != "" {
		parts = append(parts, "blood group "+user.BloodGroup)
	}
	if len(parts) == 0 {
		parts = append(parts, "vitals cleared")
	}

	record := &models.HealthRecord{
		PatientID:  user.ID,
		Type:       models.RecordTypeNote,
		Title:      "Vitals updated",
		Content:    "Profile vitals updated: " + strings.Join(parts, ", ") + ".",
		RecordDate: time.Now(),
	}

	if err := s.records.Create(ctx, record); err != nil {
		s.log.Error("failed to append vitals audit record", zap.Error(err))
		return nil, fmt.Errorf("appending vitals audit: %w", err)
	}

	s.collector.RecordsCreated.Inc()
	return record, nil
}

// ListOwn returns the caller's own records, newest record date first.
func (s *RecordService) ListOwn(ctx context.Context, caller Caller) ([]models.HealthRecord, error) {
	records, err := s.records.ListByPatient(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	sortRecordsForDisplay(records)
	return records, nil
}

// ListForDoctor returns a patient's records to a doctor, but only when the
// access guard reports an approved connection for the pair. Everything else,
// including guard lookup failures, is denied.
func (s *RecordService) ListForDoctor(ctx context.Context, caller Caller, patientID string) ([]models.HealthRecord, error) {
	if caller.Role != models.RoleDoctor || !s.guard.CanRead(ctx, caller.ID, patientID) {
		s.collector.GuardDenialsTotal.Inc()
		return nil, ErrPermissionDenied
	}

	records, err := s.records.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	sortRecordsForDisplay(records)
	return records, nil
}

// sortRecordsForDisplay orders records by record date descending. The sort is
// stable so records sharing a date keep their insertion order.
func sortRecordsForDisplay(records []models.HealthRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RecordDate.After(records[j].RecordDate)
	})
}

func validateAppendCommand(cmd *AppendRecordCommand) (time.Time, error) {
	var errs []string

	if !cmd.Type.IsValid() {
		errs = append(errs, "type must be one of prescription, lab_report, allergy, note")
	}
	if strings.TrimSpace(cmd.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(cmd.Content) == "" {
		errs = append(errs, "content is required")
	}

	var recordDate time.Time
	if strings.TrimSpace(cmd.RecordDate) == "" {
		errs = append(errs, "date is required")
	} else {
		var err error
		recordDate, err = parseRecordDate(cmd.RecordDate)
		if err != nil {
			errs = append(errs, "date must be ISO 8601 (YYYY-MM-DD or full timestamp)")
		}
	}

	if len(errs) > 0 {
		return time.Time{}, &ValidationError{Fields: errs}
	}
	return recordDate, nil
}

func parseRecordDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
