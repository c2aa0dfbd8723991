package telemetry

import "context"

type Repository interface {
	Create(ctx context.Context, r *Reading) error
	// ListByDevice returns the device's most recent readings, newest first.
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]*Reading, error)
}
