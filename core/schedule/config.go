package schedule

import (
	"fmt"
	"time"

	"github.com/kilianp07/hems/core/model"
)

// Config defines scheduler settings.
type Config struct {
	// TickIntervalSeconds is the time between two values of a schedule.
	TickIntervalSeconds int `json:"tick_interval_seconds"`
	// DispatchTimeoutSeconds bounds a single port call.
	DispatchTimeoutSeconds int `json:"dispatch_timeout_seconds"`
	// StrictNames rejects signal names the resolver can only guess.
	StrictNames bool `json:"strict_names"`
	// Domains overrides the allowed device domains.
	Domains []string `json:"domains"`
	// DegradedAfter is the number of consecutive failures before a device is
	// reported degraded.
	DegradedAfter int `json:"degraded_after"`
	// MaxParallelDispatch limits concurrent initial dispatches of one batch.
	MaxParallelDispatch int `json:"max_parallel_dispatch"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TickIntervalSeconds == 0 {
		c.TickIntervalSeconds = 3600
	}
	if c.DispatchTimeoutSeconds == 0 {
		c.DispatchTimeoutSeconds = 10
	}
	if c.MaxParallelDispatch == 0 {
		c.MaxParallelDispatch = 8
	}
}

// Validate checks the configured values.
func (c Config) Validate() error {
	if c.TickIntervalSeconds <= 0 {
		return fmt.Errorf("tick_interval_seconds must be positive")
	}
	if c.DispatchTimeoutSeconds <= 0 {
		return fmt.Errorf("dispatch_timeout_seconds must be positive")
	}
	if c.DispatchTimeoutSeconds >= c.TickIntervalSeconds {
		return fmt.Errorf("dispatch_timeout_seconds must be shorter than the tick interval")
	}
	if c.MaxParallelDispatch < 0 {
		return fmt.Errorf("max_parallel_dispatch must not be negative")
	}
	return nil
}

// Interval returns the tick interval.
func (c Config) Interval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

// Timeout returns the dispatch timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.DispatchTimeoutSeconds) * time.Second
}

// DomainList converts Domains to model domains.
func (c Config) DomainList() []model.Domain {
	out := make([]model.Domain, 0, len(c.Domains))
	for _, d := range c.Domains {
		out = append(out, model.Domain(d))
	}
	return out
}
