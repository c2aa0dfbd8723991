package records

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the named patient does not exist.
	ErrNotFound = errors.New("patient not found")
	// ErrNotAuthorized is returned when the caller holds no active grant
	// for the patient. Deliberately distinct from ErrNotFound so a 403
	// never masquerades as a 404.
	ErrNotAuthorized = errors.New("not authorized for patient")
)

type VitalRepository interface {
	Create(ctx context.Context, v *Vital) error
	// ListByPatient returns the patient's vitals oldest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Vital, int, error)
}

type DiagnosisRepository interface {
	Create(ctx context.Context, d *Diagnosis) error
	// ListByPatient returns the patient's diagnoses newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Diagnosis, int, error)
}
