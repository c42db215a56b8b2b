package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"health-vault-server/internal/metrics"
	"health-vault-server/internal/models"
)

// ShareRepository is the persistence contract for share links.
type ShareRepository interface {
	// Create stores a new share link keyed by its token.
	Create(ctx context.Context, link *models.ShareLink) error

	// GetByID returns a share link by token. Returns ErrNotFound if unknown.
	GetByID(ctx context.Context, id string) (*models.ShareLink, error)
}

// ShareService issues and resolves bearer share tokens. A token grants
// anonymous read access to the bound patient's entire record set; no expiry
// or revocation exists.
type ShareService struct {
	shares    ShareRepository
	records   RecordRepository
	collector *metrics.Collector
	log       *zap.Logger
}

// NewShareService creates a new ShareService.
func NewShareService(shares ShareRepository, records RecordRepository, collector *metrics.Collector, log *zap.Logger) *ShareService {
	return &ShareService{
		shares:    shares,
		records:   records,
		collector: collector,
		log:       log,
	}
}

// Issue creates a new unguessable token permanently bound to the patient.
func (s *ShareService) Issue(ctx context.Context, caller Caller) (*models.ShareLink, error) {
	if caller.Role != models.RolePatient {
		return nil, ErrPermissionDenied
	}

	token, err := newShareToken()
	if err != nil {
		return nil, fmt.Errorf("generating share token: %w", err)
	}

	link := &models.ShareLink{
		BaseModel: models.BaseModel{ID: token},
		PatientID: caller.ID,
	}
	if err := s.shares.Create(ctx, link); err != nil {
		s.log.Error("failed to store share link", zap.Error(err))
		return nil, fmt.Errorf("storing share link: %w", err)
	}

	s.collector.ShareLinksIssued.Inc()
	s.log.Info("share link issued", zap.String("patient_id", caller.ID))
	return link, nil
}

// Resolve returns the bound patient id and that patient's records for a
// token. Unknown tokens yield ErrNotFound. Resolution is anonymous: holding
// the token is the only credential.
func (s *ShareService) Resolve(ctx context.Context, token string) (string, []models.HealthRecord, error) {
	link, err := s.shares.GetByID(ctx, token)
	if err != nil {
		return "", nil, err
	}

	records, err := s.records.ListByPatient(ctx, link.PatientID)
	if err != nil {
		return "", nil, err
	}
	sortRecordsForDisplay(records)
	return link.PatientID, records, nil
}

// newShareToken returns 32 hex characters from crypto/rand.
func newShareToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
