package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"health-vault-server/internal/models"
	"health-vault-server/internal/services"
)

// ShareRepository is the gorm implementation of services.ShareRepository.
type ShareRepository struct {
	db *gorm.DB
}

// NewShareRepository creates a new ShareRepository.
func NewShareRepository(db *gorm.DB) *ShareRepository {
	return &ShareRepository{db: db}
}

func (r *ShareRepository) Create(ctx context.Context, link *models.ShareLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("creating share link: %w", err)
	}
	return nil
}

func (r *ShareRepository) GetByID(ctx context.Context, id string) (*models.ShareLink, error) {
	var link models.ShareLink
	if err := r.db.WithContext(ctx).First(&link, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("fetching share link: %w", err)
	}
	return &link, nil
}
