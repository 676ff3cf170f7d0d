package schedule

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/hems/core/entity"
)

var (
	activeSchedules prometheus.Gauge
	skippedNames    *prometheus.CounterVec
	ambiguousNames  prometheus.Counter
	ticksTotal      *prometheus.CounterVec
)

func newCollectors() (prometheus.Gauge, *prometheus.CounterVec, prometheus.Counter, *prometheus.CounterVec) {
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hems_active_schedules",
		Help: "Number of installed device schedules",
	})
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hems_skipped_signals_total",
			Help: "Control signals dropped because their name did not resolve",
		},
		[]string{"reason"},
	)
	ambiguous := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hems_ambiguous_names_total",
		Help: "Control signal names resolved by keeping the whole string",
	})
	ticks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hems_schedule_ticks_total",
			Help: "Schedule ticks by value source",
		},
		[]string{"source"},
	)
	return active, skipped, ambiguous, ticks
}

func init() {
	activeSchedules, skippedNames, ambiguousNames, ticksTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers scheduler metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(activeSchedules, skippedNames, ambiguousNames, ticksTotal)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	activeSchedules, skippedNames, ambiguousNames, ticksTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, entity.ErrNoDomain):
		return "no_domain"
	case errors.Is(err, entity.ErrUnsupportedDomain):
		return "unsupported_domain"
	case errors.Is(err, entity.ErrAmbiguousName):
		return "ambiguous"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "other"
	}
}

func tickSource(fallback bool) string {
	if fallback {
		return "fallback"
	}
	return "schedule"
}
