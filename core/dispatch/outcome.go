package dispatch

import (
	"time"

	"github.com/kilianp07/hems/core/model"
)

// Outcome describes one dispatch attempt. It is what the scheduler tried to
// send, not a delivery confirmation.
type Outcome struct {
	ID       string
	DeviceID model.DeviceID
	Value    float64
	// Tick is the schedule cursor the value was taken from. Zero is the
	// immediate dispatch on install.
	Tick     int
	Fallback bool
	Err      error
	Latency  time.Duration
	At       time.Time
}

// OK reports whether the port accepted the command.
func (o Outcome) OK() bool { return o.Err == nil }

// ErrorMessage returns the failure message or "".
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
