package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"health-vault-server/internal/models"
	"health-vault-server/internal/services"
)

// RecordRepository is the gorm implementation of services.RecordRepository.
type RecordRepository struct {
	db *gorm.DB
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Create(ctx context.Context, record *models.HealthRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("creating health record: %w", err)
	}
	return nil
}

func (r *RecordRepository) GetByID(ctx context.Context, id string) (*models.HealthRecord, error) {
	var record models.HealthRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("fetching health record: %w", err)
	}
	return &record, nil
}

// ListByPatient orders by record date descending; created_at ascending keeps
// same-day records in insertion order.
func (r *RecordRepository) ListByPatient(ctx context.Context, patientID string) ([]models.HealthRecord, error) {
	var records []models.HealthRecord
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("record_date desc, created_at asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("listing health records: %w", err)
	}
	return records, nil
}
