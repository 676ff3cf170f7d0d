package logging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hems/core/dispatch"
	"github.com/kilianp07/hems/core/model"
)

func TestFromOutcome(t *testing.T) {
	at := time.Unix(100, 0)
	rec := FromOutcome(dispatch.Outcome{
		ID:       "o1",
		DeviceID: model.DeviceID("climate.living"),
		Value:    21.5,
		Tick:     3,
		Fallback: true,
		Err:      errors.New("timeout"),
		Latency:  1500 * time.Microsecond,
		At:       at,
	})
	assert.Equal(t, "climate.living", rec.DeviceID)
	assert.Equal(t, 3, rec.Tick)
	assert.True(t, rec.Fallback)
	assert.True(t, rec.Failed())
	assert.InDelta(t, 1.5, rec.LatencyMS, 1e-9)
	assert.Equal(t, at, rec.Timestamp)
}

func TestJSONLStore_QueryFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outcomes.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	base := time.Unix(1_700_000_000, 0)
	ctx := context.Background()
	for i, id := range []string{"switch.a", "switch.b", "switch.a", "switch.a"} {
		rec := LogRecord{Timestamp: base.Add(time.Duration(i) * time.Minute), DeviceID: id, Tick: i}
		require.NoError(t, store.Append(ctx, rec))
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, _ = f.WriteString("not json\n")
	require.NoError(t, f.Close())

	out, err := store.Query(ctx, LogQuery{DeviceID: "switch.a"})
	require.NoError(t, err)
	require.Len(t, out, 3)

	out, err = store.Query(ctx, LogQuery{Start: base.Add(time.Minute), End: base.Add(2 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Tick)

	out, err = store.Query(ctx, LogQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].Tick)
}

func TestNopStore(t *testing.T) {
	var s LogStore = NopStore{}
	require.NoError(t, s.Append(context.Background(), LogRecord{}))
	out, err := s.Query(context.Background(), LogQuery{})
	require.NoError(t, err)
	assert.Empty(t, out)
}
