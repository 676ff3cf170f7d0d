package hass

import (
	"fmt"
	"net/url"
	"time"
)

// Config defines how to reach the Home Assistant REST API.
type Config struct {
	// BaseURL is the hub address, e.g. http://homeassistant.local:8123.
	BaseURL string `json:"base_url"`
	// Token is the long-lived access token used when a batch carries none.
	Token          string `json:"token"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("hass: base_url is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("hass: invalid base_url: %w", err)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("hass: timeout_seconds must not be negative")
	}
	return nil
}

func (c Config) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
