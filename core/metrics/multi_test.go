package metrics

import (
	"errors"
	"testing"

	"github.com/kilianp07/hems/core/dispatch"
	"github.com/kilianp07/hems/core/events"
)

type recordSink struct {
	count int
	err   error
}

func (r *recordSink) RecordOutcome(dispatch.Outcome) error {
	r.count++
	return r.err
}

func (r *recordSink) RecordSchedule(events.ScheduleEvent) error {
	r.count++
	return nil
}

// outcomeOnly does not implement ScheduleRecorder.
type outcomeOnly struct{ count int }

func (o *outcomeOnly) RecordOutcome(dispatch.Outcome) error {
	o.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &outcomeOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordOutcome(dispatch.Outcome{DeviceID: "light.a"}); err != nil {
		t.Fatalf("record outcome: %v", err)
	}
	if err := m.RecordSchedule(events.ScheduleEvent{Action: events.ActionInstalled}); err != nil {
		t.Fatalf("record schedule: %v", err)
	}
	if s1.count != 2 || s2.count != 1 {
		t.Fatalf("records not forwarded: %d %d", s1.count, s2.count)
	}
}

func TestMultiSink_ErrorDoesNotStopOthers(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordOutcome(dispatch.Outcome{}); !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if s2.count != 1 {
		t.Fatalf("second sink skipped")
	}
}
