// Package repository holds the gorm-backed implementations of the service
// persistence contracts.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"health-vault-server/internal/models"
	"health-vault-server/internal/services"
)

// ConnectionRepository is the gorm implementation of services.ConnectionRepository.
type ConnectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository creates a new ConnectionRepository.
func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	var conn models.Connection
	if err := r.db.WithContext(ctx).First(&conn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("fetching connection: %w", err)
	}
	return &conn, nil
}

func (r *ConnectionRepository) GetByPair(ctx context.Context, doctorID, patientID string) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND patient_id = ?", doctorID, patientID).
		First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("fetching connection pair: %w", err)
	}
	return &conn, nil
}

// Create inserts the connection. The unique index on (doctor_id, patient_id)
// makes concurrent duplicate requests lose here rather than racing the
// read-then-write check in the service.
func (r *ConnectionRepository) Create(ctx context.Context, conn *models.Connection) error {
	if err := r.db.WithContext(ctx).Create(conn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return services.ErrConflict
		}
		return fmt.Errorf("creating connection: %w", err)
	}
	return nil
}

// ReopenDenied flips a denied row back to pending. The status guard in the
// WHERE clause makes a concurrent transition lose with ErrConflict.
func (r *ConnectionRepository) ReopenDenied(ctx context.Context, doctorID, patientID string) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Connection{}).
			Where("doctor_id = ? AND patient_id = ? AND status = ?", doctorID, patientID, models.ConnectionDenied).
			Updates(map[string]interface{}{"status": models.ConnectionPending, "resolved_at": nil})
		if result.Error != nil {
			return fmt.Errorf("reopening connection: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return services.ErrConflict
		}
		return tx.Where("doctor_id = ? AND patient_id = ?", doctorID, patientID).First(&conn).Error
	})
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// ResolvePending flips a pending row to the given status inside a single
// transaction; the pending guard in the WHERE clause keeps concurrent
// resolutions from double-applying.
func (r *ConnectionRepository) ResolvePending(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.Connection{}).
			Where("id = ? AND status = ?", id, models.ConnectionPending).
			Updates(map[string]interface{}{"status": status, "resolved_at": now})
		if result.Error != nil {
			return fmt.Errorf("resolving connection: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return services.ErrNotFound
		}
		return tx.First(&conn, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *ConnectionRepository) ListForUser(ctx context.Context, userID string, status models.ConnectionStatus) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.WithContext(ctx).
		Preload("Doctor").
		Preload("Patient").
		Where("status = ? AND (doctor_id = ? OR patient_id = ?)", status, userID, userID).
		Order("created_at desc").
		Find(&conns).Error
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	return conns, nil
}
