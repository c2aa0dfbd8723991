package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthlink/healthlink/internal/domain/directory"
)

// AuthorizationChecker answers whether a doctor currently holds a grant for
// a patient. The access service implements it.
type AuthorizationChecker interface {
	IsAuthorized(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error)
}

// Directory is the slice of the user directory needed to tell a missing
// patient from a forbidden one.
type Directory interface {
	Lookup(ctx context.Context, id uuid.UUID) (*directory.User, error)
}

type Service struct {
	vitals    VitalRepository
	diagnoses DiagnosisRepository
	access    AuthorizationChecker
	users     Directory
}

func NewService(vitals VitalRepository, diagnoses DiagnosisRepository, access AuthorizationChecker, users Directory) *Service {
	return &Service{vitals: vitals, diagnoses: diagnoses, access: access, users: users}
}

func (s *Service) checkPatient(ctx context.Context, patientID uuid.UUID) error {
	u, err := s.users.Lookup(ctx, patientID)
	if errors.Is(err, directory.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if u.Role != directory.RolePatient {
		return ErrNotFound
	}
	return nil
}

// canRead reports whether the viewer may read the patient's clinical data.
// Patients read only their own; doctors need an active grant.
func (s *Service) canRead(ctx context.Context, viewerID uuid.UUID, viewerRole directory.Role, patientID uuid.UUID) error {
	if viewerRole == directory.RolePatient {
		if viewerID != patientID {
			return ErrNotAuthorized
		}
		return nil
	}
	ok, err := s.access.IsAuthorized(ctx, patientID, viewerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

// AddVital stores a self-reported measurement for the patient.
func (s *Service) AddVital(ctx context.Context, patientID uuid.UUID, heartRate int, bloodPressure string, recordedAt time.Time) (*Vital, error) {
	if heartRate <= 0 || heartRate > 400 {
		return nil, fmt.Errorf("heart_rate out of range: %d", heartRate)
	}
	bloodPressure = strings.TrimSpace(bloodPressure)
	if bloodPressure == "" {
		return nil, fmt.Errorf("blood_pressure is required")
	}
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	v := &Vital{
		PatientID:     patientID,
		HeartRate:     heartRate,
		BloodPressure: bloodPressure,
		RecordedAt:    recordedAt,
	}
	if err := s.vitals.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ListVitals returns the patient's vitals, oldest first.
func (s *Service) ListVitals(ctx context.Context, viewerID uuid.UUID, viewerRole directory.Role, patientID uuid.UUID, limit, offset int) ([]*Vital, int, error) {
	if err := s.checkPatient(ctx, patientID); err != nil {
		return nil, 0, err
	}
	if err := s.canRead(ctx, viewerID, viewerRole, patientID); err != nil {
		return nil, 0, err
	}
	return s.vitals.ListByPatient(ctx, patientID, limit, offset)
}

// AddDiagnosis records a diagnosis for the patient. The grant is checked at
// write time: a revoked doctor gets ErrNotAuthorized, never a silent write.
func (s *Service) AddDiagnosis(ctx context.Context, patientID, doctorID uuid.UUID, condition, notes, prescription string) (*Diagnosis, error) {
	if err := s.checkPatient(ctx, patientID); err != nil {
		return nil, err
	}
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return nil, fmt.Errorf("condition is required")
	}
	ok, err := s.access.IsAuthorized(ctx, patientID, doctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAuthorized
	}
	d := &Diagnosis{
		PatientID:    patientID,
		DoctorID:     doctorID,
		Condition:    condition,
		Notes:        strings.TrimSpace(notes),
		Prescription: strings.TrimSpace(prescription),
		RecordedAt:   time.Now(),
	}
	if err := s.diagnoses.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ListDiagnoses returns the patient's diagnosis history, newest first. The
// history survives revocation: the patient always reads it in full.
func (s *Service) ListDiagnoses(ctx context.Context, viewerID uuid.UUID, viewerRole directory.Role, patientID uuid.UUID, limit, offset int) ([]*Diagnosis, int, error) {
	if err := s.checkPatient(ctx, patientID); err != nil {
		return nil, 0, err
	}
	if err := s.canRead(ctx, viewerID, viewerRole, patientID); err != nil {
		return nil, 0, err
	}
	return s.diagnoses.ListByPatient(ctx, patientID, limit, offset)
}
