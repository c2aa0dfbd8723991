package access

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthlink/healthlink/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the access control endpoints. Patient-side routes
// require the session user to be that patient; the request route is
// doctor-initiated.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/:id/requests", h.RequestAccess, auth.RequireRole("doctor"))
	api.GET("/patients/:id/requests", h.ListPending, auth.RequireSelf("id"))
	api.POST("/patients/:id/approve", h.Approve, auth.RequireSelf("id"))
	api.POST("/patients/:id/deny", h.Deny, auth.RequireSelf("id"))
	api.POST("/patients/:id/revoke", h.Revoke, auth.RequireSelf("id"))
	api.GET("/patients/:id/doctors", h.ListDoctors, auth.RequireSelf("id"))
	api.GET("/doctors/:id/patients", h.ListPatients, auth.RequireSelf("id"))
}

type doctorRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
}

func patientID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id, nil
}

// RequestAccess records the authenticated doctor's request for access to
// the patient's records.
func (h *Handler) RequestAccess(c echo.Context) error {
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	did, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}

	// The body is optional, but when present it must parse and any
	// explicit doctor_id must name the caller.
	var body doctorRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.DoctorID != uuid.Nil && body.DoctorID != did {
		return echo.NewHTTPError(http.StatusForbidden, "cannot request access for another doctor")
	}

	req, err := h.svc.Request(c.Request().Context(), pid, did)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) ListPending(c echo.Context) error {
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListPendingRequests(c.Request().Context(), pid)
	if err != nil {
		return mapError(err)
	}
	if items == nil {
		items = []*Request{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Approve(c echo.Context) error {
	return h.decide(c, h.svc.Approve, "approved")
}

func (h *Handler) Deny(c echo.Context) error {
	return h.decide(c, h.svc.Deny, "denied")
}

func (h *Handler) Revoke(c echo.Context) error {
	return h.decide(c, h.svc.Revoke, "revoked")
}

// decide parses the pair out of the route and body and applies one of the
// patient's decisions to it.
func (h *Handler) decide(c echo.Context, op func(ctx context.Context, patientID, doctorID uuid.UUID) error, status string) error {
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	var body doctorRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.DoctorID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id is required")
	}
	if err := op(c.Request().Context(), pid, body.DoctorID); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pid, err := patientID(c)
	if err != nil {
		return err
	}
	ids, err := h.svc.ListAuthorizedDoctors(c.Request().Context(), pid)
	if err != nil {
		return mapError(err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"doctors": ids})
}

func (h *Handler) ListPatients(c echo.Context) error {
	did, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	ids, err := h.svc.ListAuthorizedPatients(c.Request().Context(), did)
	if err != nil {
		return mapError(err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"patients": ids})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, ErrRoleMismatch):
		return echo.NewHTTPError(http.StatusBadRequest, "role mismatch")
	case errors.Is(err, ErrNotPending):
		return echo.NewHTTPError(http.StatusConflict, "no pending request")
	case errors.Is(err, ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, "not authorized")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
