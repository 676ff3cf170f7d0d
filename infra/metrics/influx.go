package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/hems/core/dispatch"
	"github.com/kilianp07/hems/core/events"
	coremetrics "github.com/kilianp07/hems/core/metrics"
	"github.com/kilianp07/hems/infra/logger"
)

const writeTimeout = 5 * time.Second

// InfluxSink writes dispatch outcomes to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordOutcome writes one dispatch attempt.
func (s *InfluxSink) RecordOutcome(o dispatch.Outcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_outcome").
		AddTag("device_id", o.DeviceID.String()).
		AddTag("domain", string(o.DeviceID.Domain())).
		AddTag("fallback", strconv.FormatBool(o.Fallback)).
		AddTag("ok", strconv.FormatBool(o.OK())).
		AddTag("component", "scheduler").
		AddField("value", round3(o.Value)).
		AddField("tick", o.Tick).
		AddField("latency_ms", round3(o.Latency.Seconds()*1000)).
		AddField("error", o.ErrorMessage()).
		SetTime(o.At)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSchedule writes a schedule lifecycle event.
func (s *InfluxSink) RecordSchedule(ev events.ScheduleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_event").
		AddTag("action", string(ev.Action)).
		AddTag("component", "scheduler")
	if ev.DeviceID != "" {
		p = p.AddTag("device_id", ev.DeviceID.String())
	}
	p = p.AddField("values", ev.Values).
		AddField("name", ev.Name).
		AddField("reason", ev.Reason).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordActiveSchedules writes the number of installed schedules.
func (s *InfluxSink) RecordActiveSchedules(n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	p := write.NewPointWithMeasurement("active_schedules").
		AddTag("component", "scheduler").
		AddField("count", n).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close flushes and releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
