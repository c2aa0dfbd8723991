package access

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthlink/healthlink/internal/platform/auth"
)

func newHandlerFixture(t *testing.T) (*Handler, *fixture) {
	t.Helper()
	f := newFixture(t)
	return NewHandler(f.svc), f
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asUser(c echo.Context, id uuid.UUID, role string) {
	c.SetRequest(c.Request().WithContext(auth.WithUser(c.Request().Context(), id.String(), role)))
}

func TestRequestAccessHandler(t *testing.T) {
	h, f := newHandlerFixture(t)
	e := echo.New()
	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/patients/"+f.patient.String()+"/requests", "")
	c.SetParamNames("id")
	c.SetParamValues(f.patient.String())
	asUser(c, f.doctor, "doctor")

	if err := h.RequestAccess(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	var got Request
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != StatusPending || got.DoctorID != f.doctor {
		t.Fatalf("response = %+v", got)
	}
}

func TestRequestAccessForAnotherDoctor(t *testing.T) {
	h, f := newHandlerFixture(t)
	e := echo.New()
	body := fmt.Sprintf(`{"doctor_id":%q}`, uuid.New())
	c, _ := newJSONContext(e, http.MethodPost, "/api/v1/patients/"+f.patient.String()+"/requests", body)
	c.SetParamNames("id")
	c.SetParamValues(f.patient.String())
	asUser(c, f.doctor, "doctor")

	err := h.RequestAccess(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("err = %v, want 403", err)
	}
}

func TestRequestAccessMalformedBody(t *testing.T) {
	h, f := newHandlerFixture(t)
	e := echo.New()
	c, _ := newJSONContext(e, http.MethodPost, "/api/v1/patients/"+f.patient.String()+"/requests", `{"doctor_id":`)
	c.SetParamNames("id")
	c.SetParamValues(f.patient.String())
	asUser(c, f.doctor, "doctor")

	err := h.RequestAccess(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
	if pending, _ := f.svc.ListPendingRequests(context.Background(), f.patient); len(pending) != 0 {
		t.Fatalf("pending = %+v, want none", pending)
	}
}

func TestRequestAccessBadPatientID(t *testing.T) {
	h, f := newHandlerFixture(t)
	e := echo.New()
	c, _ := newJSONContext(e, http.MethodPost, "/api/v1/patients/nope/requests", "")
	c.SetParamNames("id")
	c.SetParamValues("nope")
	asUser(c, f.doctor, "doctor")

	err := h.RequestAccess(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestApproveHandlerFlow(t *testing.T) {
	h, f := newHandlerFixture(t)
	e := echo.New()
	if _, err := f.svc.Request(context.Background(), f.patient, f.doctor); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	body := fmt.Sprintf(`{"doctor_id":%q}`, f.doctor)
	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/patients/"+f.patient.String()+"/approve", body)
	c.SetParamNames("id")
	c.SetParamValues(f.patient.String())
	asUser(c, f.patient, "patient")

	if err := h.Approve(c); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	if ok, _ := f.svc.IsAuthorized(c.Request().Context(), f.patient, f.doctor); !ok {
		t.Fatal("doctor not authorized after approve")
	}
}

func TestApproveHandlerNoPending(t *testing.T) {
	h, f := newHandlerFixture(t)
	e := echo.New()
	body := fmt.Sprintf(`{"doctor_id":%q}`, f.doctor)
	c, _ := newJSONContext(e, http.MethodPost, "/api/v1/patients/"+f.patient.String()+"/approve", body)
	c.SetParamNames("id")
	c.SetParamValues(f.patient.String())
	asUser(c, f.patient, "patient")

	err := h.Approve(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("err = %v, want 409", err)
	}
}

func TestDecideMissingDoctorID(t *testing.T) {
	h, f := newHandlerFixture(t)
	e := echo.New()
	c, _ := newJSONContext(e, http.MethodPost, "/api/v1/patients/"+f.patient.String()+"/deny", `{}`)
	c.SetParamNames("id")
	c.SetParamValues(f.patient.String())
	asUser(c, f.patient, "patient")

	err := h.Deny(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestRevokeHandlerIsIdempotent(t *testing.T) {
	h, f := newHandlerFixture(t)
	e := echo.New()
	body := fmt.Sprintf(`{"doctor_id":%q}`, f.doctor)
	for i := 0; i < 2; i++ {
		c, rec := newJSONContext(e, http.MethodPost, "/api/v1/patients/"+f.patient.String()+"/revoke", body)
		c.SetParamNames("id")
		c.SetParamValues(f.patient.String())
		asUser(c, f.patient, "patient")
		if err := h.Revoke(c); err != nil {
			t.Fatalf("revoke %d: %v", i, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("revoke %d code = %d", i, rec.Code)
		}
	}
}

func TestListPendingHandlerEmpty(t *testing.T) {
	h, f := newHandlerFixture(t)
	e := echo.New()
	c, rec := newJSONContext(e, http.MethodGet, "/api/v1/patients/"+f.patient.String()+"/requests", "")
	c.SetParamNames("id")
	c.SetParamValues(f.patient.String())
	asUser(c, f.patient, "patient")

	if err := h.ListPending(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %s, want []", body)
	}
}

func TestListDoctorsHandler(t *testing.T) {
	h, f := newHandlerFixture(t)
	e := echo.New()
	ctx := context.Background()
	f.svc.Request(ctx, f.patient, f.doctor)
	f.svc.Approve(ctx, f.patient, f.doctor)

	c, rec := newJSONContext(e, http.MethodGet, "/api/v1/patients/"+f.patient.String()+"/doctors", "")
	c.SetParamNames("id")
	c.SetParamValues(f.patient.String())
	asUser(c, f.patient, "patient")

	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("list doctors: %v", err)
	}
	var resp struct {
		Doctors []uuid.UUID `json:"doctors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Doctors) != 1 || resp.Doctors[0] != f.doctor {
		t.Fatalf("doctors = %v", resp.Doctors)
	}
}
