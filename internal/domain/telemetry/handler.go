package telemetry

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the device ingest endpoints. They live on the public
// group: devices push without a session, rate limiting still applies.
func (h *Handler) RegisterRoutes(public *echo.Group) {
	public.POST("/ecg/data", h.Ingest)
	public.GET("/ecg/data", h.Recent)
}

type ingestRequest struct {
	DeviceID     string          `json:"device_id"`
	RecordedAt   time.Time       `json:"recorded_at"`
	SamplingRate int             `json:"sampling_rate"`
	Samples      json.RawMessage `json:"samples"`
}

func (h *Handler) Ingest(c echo.Context) error {
	var req ingestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Ingest(c.Request().Context(), req.DeviceID, req.RecordedAt, req.SamplingRate, req.Samples)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Recent(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.svc.Recent(c.Request().Context(), c.QueryParam("device_id"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if items == nil {
		items = []*Reading{}
	}
	return c.JSON(http.StatusOK, items)
}
