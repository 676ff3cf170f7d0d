package main

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/hems/infra/mqtt"
)

type doneToken struct{}

func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Error() error                  { return nil }

type recordPublisher struct {
	mu     sync.Mutex
	topics []string
	ch     chan string
}

func (p *recordPublisher) Publish(topic string, _ byte, _ bool, _ any) pahoToken {
	p.mu.Lock()
	p.topics = append(p.topics, topic)
	p.mu.Unlock()
	if p.ch != nil {
		p.ch <- topic
	}
	return doneToken{}
}

func TestHubApply(t *testing.T) {
	h := NewHub("hems", "", AutoAck{})
	now := time.Now()
	h.Apply(mqtt.Command{EntityID: "climate.living", Service: "set_temperature", Value: 21}, now)
	h.Apply(mqtt.Command{EntityID: "light.porch", Service: "turn_on", Value: 1}, now)
	h.Apply(mqtt.Command{EntityID: "light.porch", Service: "turn_off", Value: 0}, now)

	states := h.States()
	if len(states) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(states))
	}
	if states[0].EntityID != "climate.living" || states[0].Value != 21 || !states[0].On {
		t.Fatalf("unexpected climate state %+v", states[0])
	}
	if states[1].On {
		t.Fatalf("porch light should be off")
	}
}

func TestHubHandlePublishesStateAndAck(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub := &recordPublisher{ch: make(chan string, 4)}
	h := NewHub("hems", "hems/ack", AutoAck{})
	h.pub = pub
	go h.worker(ctx)

	payload, _ := json.Marshal(mqtt.Command{CommandID: "c1", EntityID: "switch.pump", Service: "turn_on", Value: 1})
	h.handle("hems/switch/pump/set", payload)

	want := map[string]bool{"hems/switch/pump/state": false, "hems/ack": false}
	for i := 0; i < 2; i++ {
		select {
		case topic := <-pub.ch:
			want[topic] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for publish")
		}
	}
	for topic, seen := range want {
		if !seen {
			t.Fatalf("missing publish on %s", topic)
		}
	}
}

func TestRandomAckDropsAll(t *testing.T) {
	pub := &recordPublisher{}
	RandomAck{DropRate: 1}.Ack(context.Background(), pub, "hems/ack", "c1")
	if len(pub.topics) != 0 {
		t.Fatalf("expected drop, got %v", pub.topics)
	}
	AutoAck{}.Ack(context.Background(), pub, "hems/ack", "c2")
	if len(pub.topics) != 1 {
		t.Fatalf("expected one ack, got %v", pub.topics)
	}
}
