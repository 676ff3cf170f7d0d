package events

import (
	"time"

	"github.com/kilianp07/hems/core/model"
)

// Action names a schedule lifecycle transition.
type Action string

const (
	ActionInstalled Action = "installed"
	ActionReplaced  Action = "replaced"
	// ActionSkipped is emitted for signal names that did not resolve.
	ActionSkipped Action = "skipped"
	ActionCleared Action = "cleared"
)

// ScheduleEvent is published on every schedule lifecycle transition.
// DeviceID is empty for ActionSkipped and ActionCleared.
type ScheduleEvent struct {
	Action   Action
	DeviceID model.DeviceID
	Name     string
	Values   int
	Reason   string
	Time     time.Time
}
