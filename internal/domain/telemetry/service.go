package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type Service struct {
	readings Repository
}

func NewService(readings Repository) *Service {
	return &Service{readings: readings}
}

// Ingest validates and stores one device capture.
func (s *Service) Ingest(ctx context.Context, deviceID string, recordedAt time.Time, samplingRate int, samples json.RawMessage) (*Reading, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}
	if samplingRate <= 0 {
		return nil, fmt.Errorf("sampling_rate must be positive")
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(samples, &arr); err != nil {
		return nil, fmt.Errorf("samples must be a JSON array")
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("samples must not be empty")
	}
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	r := &Reading{
		DeviceID:     deviceID,
		RecordedAt:   recordedAt,
		SamplingRate: samplingRate,
		Samples:      samples,
	}
	if err := s.readings.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Recent returns the device's latest readings, newest first.
func (s *Service) Recent(ctx context.Context, deviceID string, limit int) ([]*Reading, error) {
	if strings.TrimSpace(deviceID) == "" {
		return nil, fmt.Errorf("device_id is required")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.readings.ListByDevice(ctx, deviceID, limit)
}
