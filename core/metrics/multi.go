package metrics

import (
	"errors"

	"github.com/kilianp07/hems/core/dispatch"
	"github.com/kilianp07/hems/core/events"
)

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordOutcome forwards the outcome to every sink. A failing sink does not
// stop the others; the errors are joined.
func (m *MultiSink) RecordOutcome(o dispatch.Outcome) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordOutcome(o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordSchedule forwards schedule events to sinks that support them.
func (m *MultiSink) RecordSchedule(ev events.ScheduleEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ScheduleRecorder); ok {
			if err := rec.RecordSchedule(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordActiveSchedules forwards the schedule count to sinks that support it.
func (m *MultiSink) RecordActiveSchedules(n int) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ActiveSchedulesRecorder); ok {
			if err := rec.RecordActiveSchedules(n); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
