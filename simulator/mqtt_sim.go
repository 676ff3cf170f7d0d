package main

import (
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// pahoToken is the subset of paho.Token used by the simulator.
type pahoToken interface {
	WaitTimeout(time.Duration) bool
	Error() error
}

type pahoPublisher struct{ cli paho.Client }

func (p pahoPublisher) Publish(topic string, qos byte, retained bool, payload any) pahoToken {
	return p.cli.Publish(topic, qos, retained, payload)
}

func newMQTTClient(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.AutoReconnect = true
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return cli, nil
}
