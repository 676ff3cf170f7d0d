package optimization

import (
	"errors"
	"time"

	"github.com/kilianp07/hems/auth"
)

// Config describes how to reach the optimization backend.
type Config struct {
	Endpoint            string    `json:"endpoint"`
	PollIntervalSeconds int       `json:"poll_interval_seconds"`
	TimeoutSeconds      int       `json:"timeout_seconds"`
	MaxPolls            int       `json:"max_polls"`
	APIKey              string    `json:"api_key"`
	Auth                auth.Conf `json:"auth"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = 2
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("optimization: endpoint is required")
	}
	if c.MaxPolls < 0 {
		return errors.New("optimization: max_polls must be >= 0")
	}
	return nil
}

// PollInterval returns the delay between job status requests.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
