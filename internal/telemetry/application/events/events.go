package events

import (
	"time"

	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// SampleAccepted is raised after a sampler accepts a snapshot and appends
// the derived row to its table. Subscribers (archive, alarms, live feeds)
// must tolerate best-effort delivery; accumulation has already succeeded by
// the time this event is published.
type SampleAccepted struct {
	Strategy   string                     `json:"strategy"`
	Met        int64                      `json:"met"`
	Values     map[telemetry.Kind]float64 `json:"values"`
	OccurredAt time.Time                  `json:"occurred_at"`
}
