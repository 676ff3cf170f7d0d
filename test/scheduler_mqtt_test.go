//go:build integration

package test

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/schedule"
	"github.com/kilianp07/hems/infra/logger"
	"github.com/kilianp07/hems/infra/metrics"
	"github.com/kilianp07/hems/infra/mqtt"
	"github.com/kilianp07/hems/test/util"
)

func TestSchedulerPublishesOverMQTT(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	defer cleanup()

	msgs, unsubscribe, err := util.Subscribe(broker, "hems/#")
	require.NoError(t, err)
	defer unsubscribe()

	port, err := mqtt.NewPort(mqtt.Config{Broker: broker, ClientID: "hems-it"})
	require.NoError(t, err)
	defer port.Disconnect()

	m, err := schedule.NewManager(port, nil, logger.NopLogger{}, schedule.Config{})
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	res := m.UpdateControlSignals(ctx, "", []model.ControlSignal{
		{Name: "climate.living_electricitygrid_s1", Signal: []float64{20.5, 19}},
	})
	require.Equal(t, []model.DeviceID{"climate.living"}, res.Applied)

	select {
	case msg := <-msgs:
		require.Equal(t, "hems/climate/living/set", msg.Topic)
		var cmd mqtt.Command
		require.NoError(t, json.Unmarshal(msg.Payload, &cmd))
		require.Equal(t, "set_temperature", cmd.Service)
		require.Equal(t, 20.5, cmd.Value)
	case <-ctx.Done():
		t.Fatal("no command published")
	}
}

func TestActiveSchedulesMetricExposed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	_ = ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = metrics.StartPromServer(ctx, addr) }()

	waitCtx, waitCancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer waitCancel()
	require.NoError(t, util.WaitForMetric(waitCtx, "http://"+addr+"/metrics", "hems_active_schedules"))
}
