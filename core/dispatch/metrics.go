package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/hems/core/model"
)

var (
	dispatchLatency *prometheus.HistogramVec
	dispatchTotal   *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hems_dispatch_latency_seconds",
			Help:    "Duration of dispatch port calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"domain"},
	)
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hems_dispatch_total",
			Help: "Number of dispatch attempts by result",
		},
		[]string{"domain", "result"},
	)
	return lat, total
}

func init() {
	dispatchLatency, dispatchTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(dispatchLatency, dispatchTotal)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	dispatchLatency, dispatchTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

func observe(domain model.Domain, err error, lat time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	dispatchTotal.WithLabelValues(string(domain), result).Inc()
	dispatchLatency.WithLabelValues(string(domain)).Observe(lat.Seconds())
}
