package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/healthlink/healthlink/internal/domain/directory"
)

type memVitals struct {
	items []*Vital
}

func (m *memVitals) Create(_ context.Context, v *Vital) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	cp := *v
	m.items = append(m.items, &cp)
	return nil
}

func (m *memVitals) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Vital, int, error) {
	var all []*Vital
	for _, v := range m.items {
		if v.PatientID == patientID {
			all = append(all, v)
		}
	}
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

type memDiagnoses struct {
	items []*Diagnosis
}

func (m *memDiagnoses) Create(_ context.Context, d *Diagnosis) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	// Newest first, as the pg query orders it.
	m.items = append([]*Diagnosis{&cp}, m.items...)
	return nil
}

func (m *memDiagnoses) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Diagnosis, int, error) {
	var all []*Diagnosis
	for _, d := range m.items {
		if d.PatientID == patientID {
			all = append(all, d)
		}
	}
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

type stubAccess struct {
	granted map[[2]uuid.UUID]bool
}

func (s *stubAccess) IsAuthorized(_ context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	return s.granted[[2]uuid.UUID{patientID, doctorID}], nil
}

type stubDirectory struct {
	users map[uuid.UUID]*directory.User
}

func (s *stubDirectory) Lookup(_ context.Context, id uuid.UUID) (*directory.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return u, nil
}

type recordsFixture struct {
	svc     *Service
	access  *stubAccess
	patient uuid.UUID
	doctor  uuid.UUID
}

func newRecordsFixture(t *testing.T) *recordsFixture {
	t.Helper()
	patient, doctor := uuid.New(), uuid.New()
	dir := &stubDirectory{users: map[uuid.UUID]*directory.User{
		patient: {ID: patient, Role: directory.RolePatient},
		doctor:  {ID: doctor, Role: directory.RoleDoctor},
	}}
	access := &stubAccess{granted: make(map[[2]uuid.UUID]bool)}
	svc := NewService(&memVitals{}, &memDiagnoses{}, access, dir)
	return &recordsFixture{svc: svc, access: access, patient: patient, doctor: doctor}
}

func (f *recordsFixture) grant() {
	f.access.granted[[2]uuid.UUID{f.patient, f.doctor}] = true
}

func (f *recordsFixture) revoke() {
	delete(f.access.granted, [2]uuid.UUID{f.patient, f.doctor})
}

func TestAddVital(t *testing.T) {
	f := newRecordsFixture(t)
	ctx := context.Background()
	v, err := f.svc.AddVital(ctx, f.patient, 72, "120/80", time.Time{})
	if err != nil {
		t.Fatalf("add vital: %v", err)
	}
	if v.ID == uuid.Nil || v.RecordedAt.IsZero() {
		t.Fatalf("vital not filled in: %+v", v)
	}

	items, total, err := f.svc.ListVitals(ctx, f.patient, directory.RolePatient, f.patient, 20, 0)
	if err != nil || total != 1 || len(items) != 1 {
		t.Fatalf("list = %v, %d, %v", items, total, err)
	}
	if items[0].HeartRate != 72 || items[0].BloodPressure != "120/80" {
		t.Fatalf("vital = %+v", items[0])
	}
}

func TestAddVitalValidation(t *testing.T) {
	f := newRecordsFixture(t)
	ctx := context.Background()
	if _, err := f.svc.AddVital(ctx, f.patient, 0, "120/80", time.Time{}); err == nil {
		t.Fatal("accepted zero heart rate")
	}
	if _, err := f.svc.AddVital(ctx, f.patient, 72, "  ", time.Time{}); err == nil {
		t.Fatal("accepted blank blood pressure")
	}
}

func TestListVitalsAccess(t *testing.T) {
	f := newRecordsFixture(t)
	ctx := context.Background()
	f.svc.AddVital(ctx, f.patient, 72, "120/80", time.Time{})

	// Another patient cannot read them.
	other := uuid.New()
	if _, _, err := f.svc.ListVitals(ctx, other, directory.RolePatient, f.patient, 20, 0); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("other patient err = %v, want ErrNotAuthorized", err)
	}

	// A doctor without a grant cannot either.
	if _, _, err := f.svc.ListVitals(ctx, f.doctor, directory.RoleDoctor, f.patient, 20, 0); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("ungranted doctor err = %v, want ErrNotAuthorized", err)
	}

	f.grant()
	if _, _, err := f.svc.ListVitals(ctx, f.doctor, directory.RoleDoctor, f.patient, 20, 0); err != nil {
		t.Fatalf("granted doctor: %v", err)
	}

	f.revoke()
	if _, _, err := f.svc.ListVitals(ctx, f.doctor, directory.RoleDoctor, f.patient, 20, 0); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("revoked doctor err = %v, want ErrNotAuthorized", err)
	}
}

func TestListVitalsUnknownPatient(t *testing.T) {
	f := newRecordsFixture(t)
	if _, _, err := f.svc.ListVitals(context.Background(), f.doctor, directory.RoleDoctor, uuid.New(), 20, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAddDiagnosisRequiresGrant(t *testing.T) {
	f := newRecordsFixture(t)
	ctx := context.Background()
	if _, err := f.svc.AddDiagnosis(ctx, f.patient, f.doctor, "flu", "", ""); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("ungranted write err = %v, want ErrNotAuthorized", err)
	}

	f.grant()
	d, err := f.svc.AddDiagnosis(ctx, f.patient, f.doctor, "flu", "rest", "fluids")
	if err != nil {
		t.Fatalf("granted write: %v", err)
	}
	if d.DoctorID != f.doctor || d.Condition != "flu" {
		t.Fatalf("diagnosis = %+v", d)
	}

	f.revoke()
	if _, err := f.svc.AddDiagnosis(ctx, f.patient, f.doctor, "cold", "", ""); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("revoked write err = %v, want ErrNotAuthorized", err)
	}
}

func TestAddDiagnosisUnknownPatient(t *testing.T) {
	f := newRecordsFixture(t)
	if _, err := f.svc.AddDiagnosis(context.Background(), uuid.New(), f.doctor, "flu", "", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound (not ErrNotAuthorized)", err)
	}
}

func TestAddDiagnosisValidation(t *testing.T) {
	f := newRecordsFixture(t)
	f.grant()
	if _, err := f.svc.AddDiagnosis(context.Background(), f.patient, f.doctor, "  ", "", ""); err == nil {
		t.Fatal("accepted blank condition")
	}
}

func TestDiagnosisHistorySurvivesRevocation(t *testing.T) {
	f := newRecordsFixture(t)
	ctx := context.Background()
	f.grant()
	f.svc.AddDiagnosis(ctx, f.patient, f.doctor, "flu", "rest", "")
	f.svc.AddDiagnosis(ctx, f.patient, f.doctor, "cold", "", "")
	f.revoke()

	items, total, err := f.svc.ListDiagnoses(ctx, f.patient, directory.RolePatient, f.patient, 20, 0)
	if err != nil {
		t.Fatalf("patient list after revoke: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("history = %d items, want 2", total)
	}
	// Newest first.
	if items[0].Condition != "cold" || items[1].Condition != "flu" {
		t.Fatalf("order = %s, %s", items[0].Condition, items[1].Condition)
	}

	// The revoked doctor no longer reads it.
	if _, _, err := f.svc.ListDiagnoses(ctx, f.doctor, directory.RoleDoctor, f.patient, 20, 0); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("revoked doctor err = %v, want ErrNotAuthorized", err)
	}
}
