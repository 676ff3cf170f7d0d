package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/hems/core/dispatch"
	"github.com/kilianp07/hems/core/events"
)

func TestPromSink_RecordOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	_ = sink.RecordOutcome(dispatch.Outcome{DeviceID: "switch.pump", Value: 1})
	_ = sink.RecordOutcome(dispatch.Outcome{DeviceID: "switch.pump", Value: 0, Fallback: true, Err: errors.New("down")})

	if v := testutil.ToFloat64(sink.outcomes.WithLabelValues("switch.pump", "success", "schedule")); v != 1 {
		t.Fatalf("expected 1 success, got %v", v)
	}
	if v := testutil.ToFloat64(sink.outcomes.WithLabelValues("switch.pump", "failure", "fallback")); v != 1 {
		t.Fatalf("expected 1 failure, got %v", v)
	}
	if v := testutil.ToFloat64(sink.lastValue.WithLabelValues("switch.pump")); v != 0 {
		t.Fatalf("expected last value 0, got %v", v)
	}

	_ = sink.RecordSchedule(events.ScheduleEvent{Action: events.ActionCleared})
	if n := testutil.CollectAndCount(sink.lastValue); n != 0 {
		t.Fatalf("expected last value series reset, got %d", n)
	}
	if v := testutil.ToFloat64(sink.schedules.WithLabelValues("cleared")); v != 1 {
		t.Fatalf("expected cleared event counted, got %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	_ = first.RecordOutcome(dispatch.Outcome{DeviceID: "light.hall", Value: 1})
	if v := testutil.ToFloat64(second.outcomes.WithLabelValues("light.hall", "success", "schedule")); v != 1 {
		t.Fatalf("collectors not shared, got %v", v)
	}
}
