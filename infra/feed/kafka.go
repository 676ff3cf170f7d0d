// Package feed consumes optimization results from Kafka and applies them to
// the scheduler.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/monitoring"
	"github.com/kilianp07/hems/core/schedule"
)

// Config configures the Kafka consumer.
type Config struct {
	Brokers            []string `json:"brokers"`
	Topic              string   `json:"topic"`
	GroupID            string   `json:"group_id"`
	APIKey             string   `json:"api_key"`
	PollTimeoutSeconds int      `json:"poll_timeout_seconds"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Topic == "" {
		c.Topic = "hems.control-signals"
	}
	if c.GroupID == "" {
		c.GroupID = "hems-scheduler"
	}
	if c.PollTimeoutSeconds <= 0 {
		c.PollTimeoutSeconds = 5
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("feed: at least one broker is required")
	}
	if strings.TrimSpace(c.Topic) == "" {
		return errors.New("feed: topic must not be empty")
	}
	if strings.TrimSpace(c.GroupID) == "" {
		return errors.New("feed: consumer group must not be empty")
	}
	return nil
}

// Applier installs a batch of control signals.
type Applier interface {
	Apply(ctx context.Context, batch model.ControlSignalBatch) schedule.Result
}

// messageReader is the subset of *kafka.Reader used by the consumer.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer applies every message of the topic as one batch.
type Consumer struct {
	cfg    Config
	reader messageReader
	apply  Applier
	log    logger.Logger
	poll   time.Duration
}

// NewConsumer builds a consumer group reader starting at the first offset.
func NewConsumer(cfg Config, apply Applier, log logger.Logger) (*Consumer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	return newConsumer(cfg, reader, apply, log)
}

func newConsumer(cfg Config, r messageReader, apply Applier, log logger.Logger) (*Consumer, error) {
	if apply == nil {
		return nil, errors.New("feed: applier is required")
	}
	if log == nil {
		return nil, errors.New("feed: logger is required")
	}
	cfg.SetDefaults()
	return &Consumer{
		cfg:    cfg,
		reader: r,
		apply:  apply,
		log:    log,
		poll:   time.Duration(cfg.PollTimeoutSeconds) * time.Second,
	}, nil
}

// Close shuts down the reader.
func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Run consumes until ctx is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Infof("[feed] consuming %s as %s from %s", c.cfg.Topic, c.cfg.GroupID, strings.Join(c.cfg.Brokers, ","))
	defer c.log.Infof("[feed] stopped")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.poll)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, context.Canceled) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, kafka.ErrGroupClosed) {
				return nil
			}
			c.log.Errorf("[feed] fetch: %v", err)
			monitoring.CaptureException(err, map[string]string{"module": "feed"})
			continue
		}

		c.handle(ctx, msg)

		commitCtx, commitCancel := context.WithTimeout(ctx, c.poll)
		if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
			if !(errors.Is(err, context.Canceled) && ctx.Err() != nil) {
				c.log.Errorf("[feed] commit offset %d: %v", msg.Offset, err)
			}
		}
		commitCancel()
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	batch, err := Decode(msg.Value)
	if err != nil {
		c.log.Warnw("dropping malformed control signal message", map[string]any{
			"offset":    msg.Offset,
			"partition": msg.Partition,
			"error":     err.Error(),
		})
		return
	}
	if batch.APIKey == "" {
		batch.APIKey = c.cfg.APIKey
	}
	res := c.apply.Apply(ctx, batch)
	c.log.Infof("[feed] offset %d: %d installed, %d skipped", msg.Offset, len(res.Applied), len(res.Skipped))
}

// Decode parses a control signal batch message.
func Decode(raw []byte) (model.ControlSignalBatch, error) {
	var b model.ControlSignalBatch
	if err := json.Unmarshal(raw, &b); err != nil {
		return b, fmt.Errorf("decode batch: %w", err)
	}
	if b.Signals == nil {
		return b, errors.New("decode batch: control_signals missing")
	}
	return b, nil
}
