// Command simulator emulates a home automation hub on MQTT: it applies the
// set commands published by the scheduler and acknowledges them.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type simConfig struct {
	Broker     string
	Prefix     string
	AckTopic   string
	AckLatency time.Duration
	DropRate   float64
	Verbose    bool
}

func parseFlags() simConfig {
	var c simConfig
	flag.StringVar(&c.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.StringVar(&c.Prefix, "prefix", "hems", "command topic prefix")
	flag.StringVar(&c.AckTopic, "ack-topic", "hems/ack", "topic to publish acknowledgments on (empty disables)")
	flag.DurationVar(&c.AckLatency, "ack-latency", 0, "delay before acknowledging")
	flag.Float64Var(&c.DropRate, "drop-rate", 0, "probability of dropping an acknowledgment")
	flag.BoolVar(&c.Verbose, "verbose", false, "enable logging")
	flag.Parse()
	return c
}

func main() {
	cfg := parseFlags()
	if cfg.DropRate < 0 || cfg.DropRate > 1 {
		log.Fatalf("drop-rate must be within [0,1]")
	}
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := NewHub(cfg.Prefix, cfg.AckTopic, RandomAck{Delay: cfg.AckLatency, DropRate: cfg.DropRate})
	if err := hub.Run(ctx, cfg.Broker); err != nil {
		log.Fatalf("hub simulator: %v", err)
	}
}
