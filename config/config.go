package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/hems/core/metrics"
	"github.com/kilianp07/hems/core/schedule"
	"github.com/kilianp07/hems/infra/feed"
	"github.com/kilianp07/hems/infra/hass"
	"github.com/kilianp07/hems/infra/mqtt"
	"github.com/kilianp07/hems/jobs/optimization"
)

// Dispatch port types.
const (
	PortHass = "hass"
	PortMQTT = "mqtt"
)

type Config struct {
	// Port selects the actuation transport: "hass" (default) or "mqtt".
	Port         string              `json:"port"`
	Hass         hass.Config         `json:"hass"`
	MQTT         mqtt.Config         `json:"mqtt"`
	Scheduler    schedule.Config     `json:"scheduler"`
	Metrics      metrics.Config      `json:"metrics"`
	Logging      LoggingConfig       `json:"logging"`
	API          APIConfig           `json:"api"`
	Feed         feed.Config         `json:"feed"`
	Optimization optimization.Config `json:"optimization"`
	Sentry       SentryConfig        `json:"sentry"`
}

// APIConfig configures the HTTP API.
type APIConfig struct {
	// Addr is the listen address. Empty disables the API.
	Addr string `json:"addr"`
	// JWTSecret signs bearer tokens. Empty disables authentication.
	JWTSecret string `json:"jwt_secret"`
}

// FeedEnabled reports whether the Kafka feed is configured.
func (c *Config) FeedEnabled() bool { return len(c.Feed.Brokers) > 0 }

// OptimizationEnabled reports whether the optimization backend is configured.
func (c *Config) OptimizationEnabled() bool { return c.Optimization.Endpoint != "" }

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	if c.Port == "" {
		c.Port = PortHass
	}
	c.Hass.SetDefaults()
	c.MQTT.SetDefaults()
	c.Scheduler.SetDefaults()
	c.Logging.SetDefaults()
	c.Feed.SetDefaults()
	c.Optimization.SetDefaults()
}

// Validate checks the enabled sections.
func (c *Config) Validate() error {
	switch c.Port {
	case PortHass:
		if err := c.Hass.Validate(); err != nil {
			return err
		}
	case PortMQTT:
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown port type %q", c.Port)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.FeedEnabled() {
		if err := c.Feed.Validate(); err != nil {
			return err
		}
	}
	if c.OptimizationEnabled() {
		if err := c.Optimization.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
