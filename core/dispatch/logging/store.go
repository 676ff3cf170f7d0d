package logging

import (
	"context"
	"time"

	"github.com/kilianp07/hems/core/dispatch"
)

// LogRecord captures one dispatch attempt and its result.
type LogRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Value     float64   `json:"value"`
	Tick      int       `json:"tick"`
	Fallback  bool      `json:"fallback"`
	Error     string    `json:"error,omitempty"`
	LatencyMS float64   `json:"latency_ms"`
}

// Failed reports whether the attempt returned an error.
func (r LogRecord) Failed() bool { return r.Error != "" }

// FromOutcome converts a dispatch outcome into a log record.
func FromOutcome(o dispatch.Outcome) LogRecord {
	return LogRecord{
		ID:        o.ID,
		Timestamp: o.At,
		DeviceID:  o.DeviceID.String(),
		Value:     o.Value,
		Tick:      o.Tick,
		Fallback:  o.Fallback,
		Error:     o.ErrorMessage(),
		LatencyMS: float64(o.Latency) / float64(time.Millisecond),
	}
}

// LogQuery defines filters for retrieving records. Zero values match all.
type LogQuery struct {
	Start      time.Time
	End        time.Time
	DeviceID   string
	FailedOnly bool
	// Limit keeps only the most recent records when positive.
	Limit int
}

// Match reports whether r passes the query filters, ignoring Limit.
func (q LogQuery) Match(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.DeviceID != "" && r.DeviceID != q.DeviceID {
		return false
	}
	if q.FailedOnly && !r.Failed() {
		return false
	}
	return true
}

func (q LogQuery) trim(recs []LogRecord) []LogRecord {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, LogRecord) error { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]LogRecord, error) {
	return nil, nil
}
func (NopStore) Close() error { return nil }
