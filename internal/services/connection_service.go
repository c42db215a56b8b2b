package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"health-vault-server/internal/metrics"
	"health-vault-server/internal/models"
)

// Caller identifies the authenticated account performing an operation.
// It is threaded explicitly through every service call; services never
// consult ambient session state.
type Caller struct {
	ID   string
	Role models.Role
}

// ConnectionRepository is the persistence contract for the connection ledger.
type ConnectionRepository interface {
	// GetByID returns a connection by primary key. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*models.Connection, error)

	// GetByPair returns the single connection for a doctor-patient pair.
	// Returns ErrNotFound if the pair has no ledger entry.
	GetByPair(ctx context.Context, doctorID, patientID string) (*models.Connection, error)

	// Create inserts a new pending connection. Returns ErrConflict when the
	// pair already has a row (unique index on doctor_id + patient_id).
	Create(ctx context.Context, conn *models.Connection) error

	// ReopenDenied flips a denied connection back to pending, guarded so a
	// concurrent state change loses. Returns ErrConflict if the row is no
	// longer denied.
	ReopenDenied(ctx context.Context, doctorID, patientID string) (*models.Connection, error)

	// ResolvePending flips a pending connection to the given terminal status
	// in one transaction. Returns ErrNotFound if the row is not pending.
	ResolvePending(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, error)

	// ListForUser returns all connections in the given status where the user
	// is on either side of the pair, with counterparties preloaded.
	ListForUser(ctx context.Context, userID string, status models.ConnectionStatus) ([]models.Connection, error)
}

// UserDirectory is the account lookup contract consumed by services.
type UserDirectory interface {
	// GetByID returns an account by id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ConnectionService implements the consent workflow between doctors and
// patients, and the access guard derived from it.
type ConnectionService struct {
	connections ConnectionRepository
	users       UserDirectory
	collector   *metrics.Collector
	log         *zap.Logger
}

// NewConnectionService creates a new ConnectionService.
func NewConnectionService(connections ConnectionRepository, users UserDirectory, collector *metrics.Collector, log *zap.Logger) *ConnectionService {
	return &ConnectionService{
		connections: connections,
		users:       users,
		collector:   collector,
		log:         log,
	}
}

// Request records a doctor's connection request against a patient. The pair
// may hold at most one ledger entry: a pending or approved entry rejects the
// request with ErrConflict, a denied entry is reopened to pending, and no
// entry creates one. Concurrent duplicates collapse onto the unique pair
// index rather than the read-then-write check.
func (s *ConnectionService) Request(ctx context.Context, caller Caller, patientID string) (*models.Connection, error) {
	if caller.Role != models.RoleDoctor {
		return nil, ErrPermissionDenied
	}

	patient, err := s.users.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient.Role != models.RolePatient {
		return nil, ErrNotFound
	}

	existing, err := s.connections.GetByPair(ctx, caller.ID, patientID)
	switch {
	case err == nil:
		if existing.Status == models.ConnectionDenied {
			conn, err := s.connections.ReopenDenied(ctx, caller.ID, patientID)
			if err != nil {
				return nil, err
			}
			s.collector.ConnectionsTotal.WithLabelValues("requested").Inc()
			s.log.Info("connection re-requested after denial",
				zap.String("doctor_id", caller.ID),
				zap.String("patient_id", patientID),
			)
			return conn, nil
		}
		return nil, ErrConflict
	case errors.Is(err, ErrNotFound):
		conn := &models.Connection{
			DoctorID:  caller.ID,
			PatientID: patientID,
			Status:    models.ConnectionPending,
		}
		if err := s.connections.Create(ctx, conn); err != nil {
			return nil, err
		}
		s.collector.ConnectionsTotal.WithLabelValues("requested").Inc()
		s.log.Info("connection requested",
			zap.String("doctor_id", caller.ID),
			zap.String("patient_id", patientID),
		)
		return conn, nil
	default:
		return nil, fmt.Errorf("looking up connection pair: %w", err)
	}
}

// Resolve lets the addressed patient approve or deny a pending connection.
// Any other caller gets ErrPermissionDenied and the pending entry is left
// untouched. The state flip runs inside a single transaction so concurrent
// readers never observe a half-approved pair.
func (s *ConnectionService) Resolve(ctx context.Context, caller Caller, connectionID string, outcome models.ConnectionStatus) (*models.Connection, error) {
	if outcome != models.ConnectionApproved && outcome != models.ConnectionDenied {
		return nil, &ValidationError{Fields: []string{"status must be approved or denied"}}
	}

	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	if caller.Role != models.RolePatient || caller.ID != conn.PatientID {
		return nil, ErrPermissionDenied
	}
	if conn.Status != models.ConnectionPending {
		return nil, ErrNotFound
	}

	resolved, err := s.connections.ResolvePending(ctx, connectionID, outcome)
	if err != nil {
		return nil, err
	}

	s.collector.ConnectionsTotal.WithLabelValues(string(outcome)).Inc()
	s.log.Info("connection resolved",
		zap.String("connection_id", connectionID),
		zap.String("patient_id", caller.ID),
		zap.String("outcome", string(outcome)),
	)
	return resolved, nil
}

// ListPending returns all pending connections directed at or from the caller.
func (s *ConnectionService) ListPending(ctx context.Context, caller Caller) ([]models.Connection, error) {
	return s.connections.ListForUser(ctx, caller.ID, models.ConnectionPending)
}

// ListApproved returns all approved connections for either side of the caller.
func (s *ConnectionService) ListApproved(ctx context.Context, caller Caller) ([]models.Connection, error) {
	return s.connections.ListForUser(ctx, caller.ID, models.ConnectionApproved)
}

// CanRead is the access guard: true iff the ledger holds an approved
// connection for the pair. It fails closed: any lookup error, including an
// unknown patient, denies access.
func (s *ConnectionService) CanRead(ctx context.Context, doctorID, patientID string) bool {
	conn, err := s.connections.GetByPair(ctx, doctorID, patientID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("access guard lookup failed, denying",
				zap.String("doctor_id", doctorID),
				zap.String("patient_id", patientID),
				zap.Error(err),
			)
		}
		return false
	}
	return conn.Status == models.ConnectionApproved
}
