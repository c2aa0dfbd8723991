package records

import (
	"time"

	"github.com/google/uuid"
)

// Vital is a patient-reported measurement. Patients write their own vitals;
// doctors read them only while holding an active care grant.
type Vital struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	HeartRate     int       `db:"heart_rate" json:"heart_rate"`
	BloodPressure string    `db:"blood_pressure" json:"blood_pressure"`
	RecordedAt    time.Time `db:"recorded_at" json:"recorded_at"`
}

// Diagnosis is a doctor-authored clinical note. Writing one requires an
// active grant at write time; once written it stays with the patient's
// history even after the grant is revoked.
type Diagnosis struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID     uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Condition    string    `db:"condition" json:"condition"`
	Notes        string    `db:"notes" json:"notes"`
	Prescription string    `db:"prescription" json:"prescription"`
	RecordedAt   time.Time `db:"recorded_at" json:"recorded_at"`
}
