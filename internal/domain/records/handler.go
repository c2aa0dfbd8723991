package records

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthlink/healthlink/internal/domain/directory"
	"github.com/healthlink/healthlink/internal/platform/auth"
	"github.com/healthlink/healthlink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/vitals", h.ListVitals)
	api.POST("/patients/:id/vitals", h.AddVital, auth.RequireRole("patient"), auth.RequireSelf("id"))
	api.GET("/patients/:id/diagnoses", h.ListDiagnoses)
	api.POST("/patients/:id/diagnoses", h.AddDiagnosis, auth.RequireRole("doctor"))
}

func patientID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id, nil
}

func viewer(c echo.Context) (uuid.UUID, directory.Role, error) {
	ctx := c.Request().Context()
	id, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, "", echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	return id, directory.Role(auth.RoleFromContext(ctx)), nil
}

type addVitalRequest struct {
	HeartRate     int       `json:"heart_rate"`
	BloodPressure string    `json:"blood_pressure"`
	RecordedAt    time.Time `json:"recorded_at"`
}

func (h *Handler) AddVital(c echo.Context) error {
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	var req addVitalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.AddVital(c.Request().Context(), pid, req.HeartRate, req.BloodPressure, req.RecordedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) ListVitals(c echo.Context) error {
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	vid, role, err := viewer(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListVitals(c.Request().Context(), vid, role, pid, pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	if items == nil {
		items = []*Vital{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type addDiagnosisRequest struct {
	Condition    string `json:"condition"`
	Notes        string `json:"notes"`
	Prescription string `json:"prescription"`
}

func (h *Handler) AddDiagnosis(c echo.Context) error {
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	did, _, err := viewer(c)
	if err != nil {
		return err
	}
	var req addDiagnosisRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.AddDiagnosis(c.Request().Context(), pid, did, req.Condition, req.Notes, req.Prescription)
	if err != nil {
		return mapWriteError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDiagnoses(c echo.Context) error {
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	vid, role, err := viewer(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDiagnoses(c.Request().Context(), vid, role, pid, pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	if items == nil {
		items = []*Diagnosis{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, "not authorized")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// mapWriteError is mapError for the write paths, where a non-sentinel error
// came from the service's input checks.
func mapWriteError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotAuthorized):
		return mapError(err)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
