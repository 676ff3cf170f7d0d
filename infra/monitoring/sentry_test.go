package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hems/config"
	coremon "github.com/kilianp07/hems/core/monitoring"
)

type recordingTransport struct {
	events []*sentry.Event
}

func (t *recordingTransport) Configure(sentry.ClientOptions)         {}
func (t *recordingTransport) SendEvent(e *sentry.Event)              { t.events = append(t.events, e) }
func (t *recordingTransport) Flush(time.Duration) bool               { return true }
func (t *recordingTransport) FlushWithContext(context.Context) bool { return true }
func (t *recordingTransport) Close()                                 {}

func TestNewSentryMonitorEmptyDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	_, ok := m.(coremon.NopMonitor)
	assert.True(t, ok)
}

func TestSentryMonitorTags(t *testing.T) {
	tr := &recordingTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: "https://public@example.com/1", Transport: tr})
	require.NoError(t, err)
	m := &sentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}

	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("port down"), map[string]string{"device_id": "switch.pump"})
	m.CapturePanic("boom", map[string]string{"module": "scheduler"})

	require.Len(t, tr.events, 2)
	assert.Equal(t, "switch.pump", tr.events[0].Tags["device_id"])
	assert.Equal(t, "scheduler", tr.events[1].Tags["module"])
}
