package metrics

import (
	"github.com/kilianp07/hems/core/dispatch"
	"github.com/kilianp07/hems/core/events"
)

// MetricsSink records dispatch outcomes for observability purposes.
type MetricsSink interface {
	RecordOutcome(o dispatch.Outcome) error
}

// ScheduleRecorder records schedule lifecycle events.
type ScheduleRecorder interface {
	RecordSchedule(ev events.ScheduleEvent) error
}

// ActiveSchedulesRecorder is implemented by sinks tracking the number of live
// schedules.
type ActiveSchedulesRecorder interface {
	RecordActiveSchedules(n int) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordOutcome(dispatch.Outcome) error      { return nil }
func (NopSink) RecordSchedule(events.ScheduleEvent) error { return nil }
func (NopSink) RecordActiveSchedules(int) error           { return nil }
