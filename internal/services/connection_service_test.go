package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"health-vault-server/internal/models"
)

const (
	testDoctorID  = "0b54d31a-7ddc-4a92-9a4b-111111111111"
	testPatientID = "5f0e8a1c-2b3d-4c5e-8f90-222222222222"
)

func testDoctor() Caller {
	return Caller{ID: testDoctorID, Role: models.RoleDoctor}
}

func testPatient() Caller {
	return Caller{ID: testPatientID, Role: models.RolePatient}
}

func patientUser() *models.User {
	return &models.User{
		BaseModel: models.BaseModel{ID: testPatientID},
		Role:      models.RolePatient,
	}
}

func TestConnectionService_Request_CreatesPending(t *testing.T) {
	repo := &MockConnectionRepository{
		GetByPairFunc: func(ctx context.Context, doctorID, patientID string) (*models.Connection, error) {
			return nil, ErrNotFound
		},
	}
	users := &MockUserDirectory{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return patientUser(), nil
		},
	}
	svc := NewConnectionService(repo, users, newTestCollector(), newTestLogger())

	conn, err := svc.Request(context.Background(), testDoctor(), testPatientID)
	assert.NoError(t, err)
	assert.Equal(t, models.ConnectionPending, conn.Status)
	assert.Equal(t, testDoctorID, conn.DoctorID)
	assert.Equal(t, testPatientID, conn.PatientID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&repo.CreateCallCount))
}

func TestConnectionService_Request_NonDoctorDenied(t *testing.T) {
	svc := NewConnectionService(&MockConnectionRepository{}, &MockUserDirectory{}, newTestCollector(), newTestLogger())

	_, err := svc.Request(context.Background(), testPatient(), testDoctorID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestConnectionService_Request_UnknownPatient(t *testing.T) {
	users := &MockUserDirectory{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, ErrNotFound
		},
	}
	svc := NewConnectionService(&MockConnectionRepository{}, users, newTestCollector(), newTestLogger())

	_, err := svc.Request(context.Background(), testDoctor(), "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConnectionService_Request_TargetMustBePatient(t *testing.T) {
	users := &MockUserDirectory{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{BaseModel: models.BaseModel{ID: id}, Role: models.RoleDoctor}, nil
		},
	}
	svc := NewConnectionService(&MockConnectionRepository{}, users, newTestCollector(), newTestLogger())

	_, err := svc.Request(context.Background(), testDoctor(), testDoctorID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConnectionService_Request_ConflictsOnExistingEntry(t *testing.T) {
	for _, status := range []models.ConnectionStatus{models.ConnectionPending, models.ConnectionApproved} {
		repo := &MockConnectionRepository{
			GetByPairFunc: func(ctx context.Context, doctorID, patientID string) (*models.Connection, error) {
				return &models.Connection{DoctorID: doctorID, PatientID: patientID, Status: status}, nil
			},
		}
		users := &MockUserDirectory{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return patientUser(), nil
			},
		}
		svc := NewConnectionService(repo, users, newTestCollector(), newTestLogger())

		_, err := svc.Request(context.Background(), testDoctor(), testPatientID)
		assert.ErrorIs(t, err, ErrConflict, "status %s should reject a duplicate request", status)
		assert.Equal(t, int32(0), atomic.LoadInt32(&repo.CreateCallCount))
	}
}

func TestConnectionService_Request_ReopensDeniedEntry(t *testing.T) {
	repo := &MockConnectionRepository{
		GetByPairFunc: func(ctx context.Context, doctorID, patientID string) (*models.Connection, error) {
			return &models.Connection{DoctorID: doctorID, PatientID: patientID, Status: models.ConnectionDenied}, nil
		},
		ReopenDeniedFunc: func(ctx context.Context, doctorID, patientID string) (*models.Connection, error) {
			return &models.Connection{DoctorID: doctorID, PatientID: patientID, Status: models.ConnectionPending}, nil
		},
	}
	users := &MockUserDirectory{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return patientUser(), nil
		},
	}
	svc := NewConnectionService(repo, users, newTestCollector(), newTestLogger())

	conn, err := svc.Request(context.Background(), testDoctor(), testPatientID)
	assert.NoError(t, err)
	assert.Equal(t, models.ConnectionPending, conn.Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(&repo.CreateCallCount), "reopen must not insert a second row")
}

func TestConnectionService_Request_SurfacesRaceConflict(t *testing.T) {
	// Two concurrent first requests: both miss on the pair lookup, the loser
	// of the insert race gets ErrConflict from the unique pair index.
	repo := &MockConnectionRepository{
		GetByPairFunc: func(ctx context.Context, doctorID, patientID string) (*models.Connection, error) {
			return nil, ErrNotFound
		},
		CreateFunc: func(ctx context.Context, conn *models.Connection) error {
			return ErrConflict
		},
	}
	users := &MockUserDirectory{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return patientUser(), nil
		},
	}
	svc := NewConnectionService(repo, users, newTestCollector(), newTestLogger())

	_, err := svc.Request(context.Background(), testDoctor(), testPatientID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConnectionService_Resolve_ApprovedByAddressedPatient(t *testing.T) {
	connID := "conn-1"
	repo := &MockConnectionRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Connection, error) {
			return &models.Connection{
				BaseModel: models.BaseModel{ID: connID},
				DoctorID:  testDoctorID,
				PatientID: testPatientID,
				Status:    models.ConnectionPending,
			}, nil
		},
		ResolvePendingFunc: func(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, error) {
			now := time.Now()
			return &models.Connection{
				BaseModel:  models.BaseModel{ID: id},
				DoctorID:   testDoctorID,
				PatientID:  testPatientID,
				Status:     status,
				ResolvedAt: &now,
			}, nil
		},
	}
	svc := NewConnectionService(repo, &MockUserDirectory{}, newTestCollector(), newTestLogger())

	conn, err := svc.Resolve(context.Background(), testPatient(), connID, models.ConnectionApproved)
	assert.NoError(t, err)
	assert.Equal(t, models.ConnectionApproved, conn.Status)
	assert.NotNil(t, conn.ResolvedAt)
}

func TestConnectionService_Resolve_OnlyAddressedPatient(t *testing.T) {
	connID := "conn-1"
	repo := &MockConnectionRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Connection, error) {
			return &models.Connection{
				BaseModel: models.BaseModel{ID: connID},
				DoctorID:  testDoctorID,
				PatientID: testPatientID,
				Status:    models.ConnectionPending,
			}, nil
		},
	}
	svc := NewConnectionService(repo, &MockUserDirectory{}, newTestCollector(), newTestLogger())

	callers := []Caller{
		testDoctor(),
		{ID: "other-patient", Role: models.RolePatient},
	}
	for _, caller := range callers {
		_, err := svc.Resolve(context.Background(), caller, connID, models.ConnectionApproved)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&repo.ResolvePendingCallCount), "denied resolutions must leave the entry untouched")
}

func TestConnectionService_Resolve_InvalidOutcome(t *testing.T) {
	svc := NewConnectionService(&MockConnectionRepository{}, &MockUserDirectory{}, newTestCollector(), newTestLogger())

	var verr *ValidationError
	_, err := svc.Resolve(context.Background(), testPatient(), "conn-1", models.ConnectionPending)
	assert.ErrorAs(t, err, &verr)
}

func TestConnectionService_Resolve_NotPending(t *testing.T) {
	repo := &MockConnectionRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Connection, error) {
			return &models.Connection{
				BaseModel: models.BaseModel{ID: id},
				DoctorID:  testDoctorID,
				PatientID: testPatientID,
				Status:    models.ConnectionApproved,
			}, nil
		},
	}
	svc := NewConnectionService(repo, &MockUserDirectory{}, newTestCollector(), newTestLogger())

	_, err := svc.Resolve(context.Background(), testPatient(), "conn-1", models.ConnectionDenied)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConnectionService_CanRead(t *testing.T) {
	tests := []struct {
		name   string
		status models.ConnectionStatus
		err    error
		want   bool
	}{
		{name: "approved grants access", status: models.ConnectionApproved, want: true},
		{name: "pending denies", status: models.ConnectionPending, want: false},
		{name: "denied denies", status: models.ConnectionDenied, want: false},
		{name: "no entry denies", err: ErrNotFound, want: false},
		{name: "lookup failure fails closed", err: errors.New("db down"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockConnectionRepository{
				GetByPairFunc: func(ctx context.Context, doctorID, patientID string) (*models.Connection, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &models.Connection{DoctorID: doctorID, PatientID: patientID, Status: tt.status}, nil
				},
			}
			svc := NewConnectionService(repo, &MockUserDirectory{}, newTestCollector(), newTestLogger())
			assert.Equal(t, tt.want, svc.CanRead(context.Background(), testDoctorID, testPatientID))
		})
	}
}

// Walks the full consent lifecycle against a stateful in-memory ledger:
// request, deny, re-request, approve, then read access.
func TestConnectionService_ConsentLifecycle(t *testing.T) {
	var entry *models.Connection

	repo := &MockConnectionRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Connection, error) {
			if entry == nil || entry.ID != id {
				return nil, ErrNotFound
			}
			copied := *entry
			return &copied, nil
		},
		GetByPairFunc: func(ctx context.Context, doctorID, patientID string) (*models.Connection, error) {
			if entry == nil || entry.DoctorID != doctorID || entry.PatientID != patientID {
				return nil, ErrNotFound
			}
			copied := *entry
			return &copied, nil
		},
		CreateFunc: func(ctx context.Context, conn *models.Connection) error {
			if entry != nil {
				return ErrConflict
			}
			conn.ID = "conn-lifecycle"
			copied := *conn
			entry = &copied
			return nil
		},
		ReopenDeniedFunc: func(ctx context.Context, doctorID, patientID string) (*models.Connection, error) {
			if entry == nil || entry.Status != models.ConnectionDenied {
				return nil, ErrConflict
			}
			entry.Status = models.ConnectionPending
			entry.ResolvedAt = nil
			copied := *entry
			return &copied, nil
		},
		ResolvePendingFunc: func(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, error) {
			if entry == nil || entry.ID != id || entry.Status != models.ConnectionPending {
				return nil, ErrNotFound
			}
			now := time.Now()
			entry.Status = status
			entry.ResolvedAt = &now
			copied := *entry
			return &copied, nil
		},
	}
	users := &MockUserDirectory{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return patientUser(), nil
		},
	}
	svc := NewConnectionService(repo, users, newTestCollector(), newTestLogger())
	ctx := context.Background()

	conn, err := svc.Request(ctx, testDoctor(), testPatientID)
	assert.NoError(t, err)
	assert.Equal(t, models.ConnectionPending, conn.Status)
	assert.False(t, svc.CanRead(ctx, testDoctorID, testPatientID))

	_, err = svc.Resolve(ctx, testPatient(), conn.ID, models.ConnectionDenied)
	assert.NoError(t, err)
	assert.False(t, svc.CanRead(ctx, testDoctorID, testPatientID))

	reopened, err := svc.Request(ctx, testDoctor(), testPatientID)
	assert.NoError(t, err)
	assert.Equal(t, models.ConnectionPending, reopened.Status)
	assert.Equal(t, conn.ID, reopened.ID, "re-request reuses the pair's single ledger entry")

	approved, err := svc.Resolve(ctx, testPatient(), conn.ID, models.ConnectionApproved)
	assert.NoError(t, err)
	assert.Equal(t, models.ConnectionApproved, approved.Status)
	assert.True(t, svc.CanRead(ctx, testDoctorID, testPatientID))

	_, err = svc.Request(ctx, testDoctor(), testPatientID)
	assert.ErrorIs(t, err, ErrConflict, "approved pairs reject further requests")
}
