package access

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an access request. A (patient, doctor)
// pair has at most one ledger row; the row's status transitions, it is never
// duplicated. Revoked and denied rows may re-enter pending when the doctor
// requests again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusRevoked  Status = "revoked"
)

// Request maps to the access_requests table: the historical ledger of
// request/approval/denial events per (patient, doctor) pair.
type Request struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Grant maps to the care_grants table: the live set of (patient, doctor)
// pairs with active read/write access. A row exists iff the doctor currently
// has access to the patient's clinical data.
type Grant struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID   uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ApprovedAt time.Time `db:"approved_at" json:"approved_at"`
}
