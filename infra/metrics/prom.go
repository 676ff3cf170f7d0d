package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/hems/core/dispatch"
	"github.com/kilianp07/hems/core/events"
	coremetrics "github.com/kilianp07/hems/core/metrics"
)

// PromSink records per-device dispatch outcomes in Prometheus metrics.
type PromSink struct {
	outcomes  *prometheus.CounterVec
	lastValue *prometheus.GaugeVec
	schedules *prometheus.CounterVec
}

// NewPromSink registers the sink metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hems_device_dispatch_total",
		Help: "Dispatch attempts per device",
	}, []string{"device_id", "result", "source"})
	lastValue := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hems_device_last_value",
		Help: "Last value dispatched to the device",
	}, []string{"device_id"})
	schedules := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hems_schedule_events_total",
		Help: "Schedule lifecycle events",
	}, []string{"action"})

	var err error
	if outcomes, err = register(reg, outcomes); err != nil {
		return nil, err
	}
	if lastValue, err = register(reg, lastValue); err != nil {
		return nil, err
	}
	if schedules, err = register(reg, schedules); err != nil {
		return nil, err
	}
	return &PromSink{outcomes: outcomes, lastValue: lastValue, schedules: schedules}, nil
}

// register returns the collector already registered under the same
// descriptor, if any.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordOutcome counts the attempt and tracks the last value sent.
func (s *PromSink) RecordOutcome(o dispatch.Outcome) error {
	result := "success"
	if !o.OK() {
		result = "failure"
	}
	source := "schedule"
	if o.Fallback {
		source = "fallback"
	}
	id := o.DeviceID.String()
	s.outcomes.WithLabelValues(id, result, source).Inc()
	s.lastValue.WithLabelValues(id).Set(o.Value)
	return nil
}

// RecordSchedule counts lifecycle events. Removed devices lose their last
// value series.
func (s *PromSink) RecordSchedule(ev events.ScheduleEvent) error {
	s.schedules.WithLabelValues(string(ev.Action)).Inc()
	if ev.Action == events.ActionCleared {
		s.lastValue.Reset()
	}
	return nil
}
