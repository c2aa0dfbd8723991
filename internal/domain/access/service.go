package access

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthlink/healthlink/internal/domain/directory"
	"github.com/healthlink/healthlink/internal/platform/db"
)

// Directory is the slice of the user directory the access service needs to
// validate that a pair really is (patient, doctor).
type Directory interface {
	Lookup(ctx context.Context, id uuid.UUID) (*directory.User, error)
}

// TxRunner executes fn atomically. Production wiring uses PoolTxRunner;
// tests substitute a pass-through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// PoolTxRunner returns a TxRunner that executes fn inside a single
// transaction on the pool.
func PoolTxRunner(pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
}

// Service implements the patient/doctor access control state machine. The
// request ledger and the grant store move together: approve and revoke write
// both inside one transaction so a grant can never exist without a matching
// ledger status.
type Service struct {
	requests RequestRepository
	grants   GrantRepository
	users    Directory
	runTx    TxRunner
}

func NewService(requests RequestRepository, grants GrantRepository, users Directory, runTx TxRunner) *Service {
	return &Service{requests: requests, grants: grants, users: users, runTx: runTx}
}

// checkPair confirms both ids exist and carry the expected roles.
func (s *Service) checkPair(ctx context.Context, patientID, doctorID uuid.UUID) error {
	p, err := s.users.Lookup(ctx, patientID)
	if errors.Is(err, directory.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if p.Role != directory.RolePatient {
		return ErrRoleMismatch
	}
	d, err := s.users.Lookup(ctx, doctorID)
	if errors.Is(err, directory.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if d.Role != directory.RoleDoctor {
		return ErrRoleMismatch
	}
	return nil
}

// Request records the doctor's request for access to the patient's records.
// A denied or revoked pair re-enters pending; a pending or already approved
// pair is left untouched and returned as-is.
func (s *Service) Request(ctx context.Context, patientID, doctorID uuid.UUID) (*Request, error) {
	if err := s.checkPair(ctx, patientID, doctorID); err != nil {
		return nil, err
	}
	req, _, err := s.requests.Upsert(ctx, patientID, doctorID)
	return req, err
}

// Approve transitions a pending request to approved and creates the care
// grant, atomically. Approving an already approved pair is a no-op; any
// other non-pending state is ErrNotPending. The ledger row is read under a
// row lock so a concurrent Revoke cannot commit between the status check
// and the grant write.
func (s *Service) Approve(ctx context.Context, patientID, doctorID uuid.UUID) error {
	return s.atomically(ctx, func(ctx context.Context) error {
		req, err := s.requests.GetForUpdate(ctx, patientID, doctorID)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrNotPending
		}
		switch req.Status {
		case StatusApproved:
			// Re-approval is idempotent. Re-create the grant in case the
			// two stores ever drifted; Create is a no-op when it exists.
			return s.grants.Create(ctx, patientID, doctorID)
		case StatusPending:
		default:
			return ErrNotPending
		}
		if err := s.requests.SetStatus(ctx, patientID, doctorID, StatusApproved); err != nil {
			return err
		}
		return s.grants.Create(ctx, patientID, doctorID)
	})
}

// Deny transitions a pending request to denied. The denial is durable: the
// pair stays denied until the doctor requests again.
func (s *Service) Deny(ctx context.Context, patientID, doctorID uuid.UUID) error {
	req, err := s.requests.Get(ctx, patientID, doctorID)
	if err != nil {
		return err
	}
	if req == nil || req.Status != StatusPending {
		return ErrNotPending
	}
	return s.requests.SetStatus(ctx, patientID, doctorID, StatusDenied)
}

// Revoke removes the doctor's grant and marks the ledger row revoked,
// atomically. Revoking a pair with no active grant is a no-op.
func (s *Service) Revoke(ctx context.Context, patientID, doctorID uuid.UUID) error {
	return s.atomically(ctx, func(ctx context.Context) error {
		// Lock the ledger row first so revoke serializes with Approve.
		req, err := s.requests.GetForUpdate(ctx, patientID, doctorID)
		if err != nil {
			return err
		}
		if req == nil {
			return nil
		}
		ok, err := s.grants.Exists(ctx, patientID, doctorID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := s.grants.Delete(ctx, patientID, doctorID); err != nil {
			return err
		}
		return s.requests.SetStatus(ctx, patientID, doctorID, StatusRevoked)
	})
}

// IsAuthorized reports whether the doctor holds an active grant for the
// patient. It always consults the persisted grant set, so a revoke is
// visible to the very next call.
func (s *Service) IsAuthorized(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	return s.grants.Exists(ctx, patientID, doctorID)
}

// ListPendingRequests returns the patient's pending requests, oldest first.
func (s *Service) ListPendingRequests(ctx context.Context, patientID uuid.UUID) ([]*Request, error) {
	return s.requests.ListPending(ctx, patientID)
}

// ListAuthorizedDoctors returns the doctors currently granted access to the
// patient.
func (s *Service) ListAuthorizedDoctors(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error) {
	return s.grants.ListDoctors(ctx, patientID)
}

// ListAuthorizedPatients returns the patients the doctor currently has
// access to.
func (s *Service) ListAuthorizedPatients(ctx context.Context, doctorID uuid.UUID) ([]uuid.UUID, error) {
	return s.grants.ListPatients(ctx, doctorID)
}

// atomically runs fn under the transaction runner, retrying once when the
// failure is a transient storage error (serialization failure, deadlock, or
// a dropped connection).
func (s *Service) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	err := s.runTx(ctx, fn)
	if err != nil && retryable(err) {
		return s.runTx(ctx, fn)
	}
	return err
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01": // serialization failure, deadlock detected
		return true
	}
	// Class 08 covers connection exceptions.
	return strings.HasPrefix(pgErr.Code, "08")
}
