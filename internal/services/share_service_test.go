package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"health-vault-server/internal/models"
)

var shareTokenPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestShareService_Issue(t *testing.T) {
	var stored *models.ShareLink
	shares := &MockShareRepository{
		CreateFunc: func(ctx context.Context, link *models.ShareLink) error {
			stored = link
			return nil
		},
	}
	svc := NewShareService(shares, &MockRecordRepository{}, newTestCollector(), newTestLogger())

	link, err := svc.Issue(context.Background(), testPatient())
	assert.NoError(t, err)
	assert.Regexp(t, shareTokenPattern, link.ID)
	assert.Equal(t, testPatientID, stored.PatientID)
}

func TestShareService_Issue_TokensAreUnique(t *testing.T) {
	svc := NewShareService(&MockShareRepository{}, &MockRecordRepository{}, newTestCollector(), newTestLogger())

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		link, err := svc.Issue(context.Background(), testPatient())
		assert.NoError(t, err)
		assert.False(t, seen[link.ID], "token %s issued twice", link.ID)
		seen[link.ID] = true
	}
}

func TestShareService_Issue_DoctorDenied(t *testing.T) {
	svc := NewShareService(&MockShareRepository{}, &MockRecordRepository{}, newTestCollector(), newTestLogger())

	_, err := svc.Issue(context.Background(), testDoctor())
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestShareService_Resolve(t *testing.T) {
	const token = "0123456789abcdef0123456789abcdef"
	shares := &MockShareRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.ShareLink, error) {
			if id != token {
				return nil, ErrNotFound
			}
			return &models.ShareLink{BaseModel: models.BaseModel{ID: token}, PatientID: testPatientID}, nil
		},
	}
	records := &MockRecordRepository{
		ListByPatientFunc: func(ctx context.Context, patientID string) ([]models.HealthRecord, error) {
			return []models.HealthRecord{{BaseModel: models.BaseModel{ID: "r1"}, PatientID: patientID}}, nil
		},
	}
	svc := NewShareService(shares, records, newTestCollector(), newTestLogger())

	// Resolution is repeatable: the token never expires.
	for i := 0; i < 2; i++ {
		patientID, got, err := svc.Resolve(context.Background(), token)
		assert.NoError(t, err)
		assert.Equal(t, testPatientID, patientID)
		assert.Len(t, got, 1)
	}
}

func TestShareService_Resolve_UnknownToken(t *testing.T) {
	shares := &MockShareRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.ShareLink, error) {
			return nil, ErrNotFound
		},
	}
	svc := NewShareService(shares, &MockRecordRepository{}, newTestCollector(), newTestLogger())

	_, _, err := svc.Resolve(context.Background(), "ffffffffffffffffffffffffffffffff")
	assert.ErrorIs(t, err, ErrNotFound)
}
