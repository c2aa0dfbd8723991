package access

import (
	"context"

	"github.com/google/uuid"
)

// RequestRepository is the access request ledger. One row per
// (patient, doctor) pair at all times.
type RequestRepository interface {
	// Upsert records a pending request for the pair. If no row exists one is
	// inserted; a denied or revoked row is reset to pending; a pending or
	// approved row is returned untouched. The bool reports whether the row
	// was newly inserted; callers read the returned status for the rest.
	Upsert(ctx context.Context, patientID, doctorID uuid.UUID) (*Request, bool, error)
	// Get returns the pair's ledger row, or (nil, nil) when none exists.
	Get(ctx context.Context, patientID, doctorID uuid.UUID) (*Request, error)
	// GetForUpdate is Get with the row locked for the duration of the
	// surrounding transaction. Approve and revoke read through it so their
	// read-then-write sequences serialize instead of interleaving.
	GetForUpdate(ctx context.Context, patientID, doctorID uuid.UUID) (*Request, error)
	// ListPending returns pending requests for the patient in insertion order.
	ListPending(ctx context.Context, patientID uuid.UUID) ([]*Request, error)
	// SetStatus transitions the pair's row to the given status.
	SetStatus(ctx context.Context, patientID, doctorID uuid.UUID, status Status) error
}

// GrantRepository is the authorization store: the canonical answer to "may
// doctor D act on patient P's clinical data".
type GrantRepository interface {
	// Exists reports whether the pair has an active grant. Always reads
	// persisted state; no caching, so a revoke is visible to the next check.
	Exists(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error)
	// Create inserts a grant. Idempotent: a second insert for the same pair
	// is a no-op, not an error and not a duplicate row.
	Create(ctx context.Context, patientID, doctorID uuid.UUID) error
	// Delete removes a grant. Idempotent: deleting an absent grant is a no-op.
	Delete(ctx context.Context, patientID, doctorID uuid.UUID) error
	// ListDoctors returns doctors granted access to the patient.
	ListDoctors(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error)
	// ListPatients returns patients the doctor has access to.
	ListPatients(ctx context.Context, doctorID uuid.UUID) ([]uuid.UUID, error)
}
