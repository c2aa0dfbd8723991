package telemetry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Reading is one ECG capture pushed by a device. Samples stay as raw JSON
// end to end; the server never interprets the waveform.
type Reading struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	DeviceID     string          `db:"device_id" json:"device_id"`
	RecordedAt   time.Time       `db:"recorded_at" json:"recorded_at"`
	SamplingRate int             `db:"sampling_rate" json:"sampling_rate"`
	Samples      json.RawMessage `db:"samples" json:"samples"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
