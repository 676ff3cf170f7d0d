package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/hems/infra/mqtt"
)

// DeviceState is the simulated state of one entity.
type DeviceState struct {
	EntityID  string    `json:"entity_id"`
	On        bool      `json:"on"`
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Hub applies set commands to in-memory device states and acknowledges them.
type Hub struct {
	Prefix   string
	AckTopic string
	Strategy AckStrategy

	mu      sync.Mutex
	devices map[string]DeviceState
	pub     publisher
	ackCh   chan string
}

// NewHub creates a hub answering on ackTopic. An empty ackTopic disables
// acknowledgments.
func NewHub(prefix, ackTopic string, strat AckStrategy) *Hub {
	return &Hub{
		Prefix:   prefix,
		AckTopic: ackTopic,
		Strategy: strat,
		devices:  map[string]DeviceState{},
		ackCh:    make(chan string, 50),
	}
}

// Apply updates the device state from a decoded command.
func (h *Hub) Apply(cmd mqtt.Command, now time.Time) DeviceState {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.devices[cmd.EntityID]
	st.EntityID = cmd.EntityID
	st.UpdatedAt = now
	switch cmd.Service {
	case "turn_off", "close_cover":
		st.On = false
		st.Value = 0
	default:
		st.On = true
		st.Value = cmd.Value
	}
	h.devices[cmd.EntityID] = st
	return st
}

// States returns the device states sorted by entity id.
func (h *Hub) States() []DeviceState {
	h.mu.Lock()
	out := make([]DeviceState, 0, len(h.devices))
	for _, d := range h.devices {
		out = append(out, d)
	}
	h.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// stateTopic maps {prefix}/{domain}/{object}/set to .../state.
func stateTopic(setTopic string) string {
	return strings.TrimSuffix(setTopic, "/set") + "/state"
}

// Run connects to the broker and serves commands until ctx is done.
func (h *Hub) Run(ctx context.Context, broker string) error {
	cli, err := newMQTTClient(broker, "hems-hubsim")
	if err != nil {
		return err
	}
	h.pub = pahoPublisher{cli: cli}
	for i := 0; i < 5; i++ {
		go h.worker(ctx)
	}
	topic := fmt.Sprintf("%s/+/+/set", h.Prefix)
	if token := cli.Subscribe(topic, 1, h.onCommand); token.Wait() && token.Error() != nil {
		cli.Disconnect(250)
		return token.Error()
	}
	log.Printf("hub simulator listening on %s", topic)
	<-ctx.Done()
	cli.Disconnect(250)
	return nil
}

func (h *Hub) onCommand(_ paho.Client, msg paho.Message) {
	h.handle(msg.Topic(), msg.Payload())
}

func (h *Hub) handle(topic string, payload []byte) {
	var cmd mqtt.Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		log.Printf("decode command on %s: %v", topic, err)
		return
	}
	st := h.Apply(cmd, time.Now())
	if b, err := json.Marshal(st); err == nil && h.pub != nil {
		h.pub.Publish(stateTopic(topic), 0, true, b)
	}
	if h.AckTopic == "" {
		return
	}
	select {
	case h.ackCh <- cmd.CommandID:
	default:
		log.Printf("ack queue full, dropping command %s", cmd.CommandID)
	}
}

func (h *Hub) worker(ctx context.Context) {
	for {
		select {
		case id := <-h.ackCh:
			h.Strategy.Ack(ctx, h.pub, h.AckTopic, id)
		case <-ctx.Done():
			return
		}
	}
}
