package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `port: "mqtt"
hass:
  base_url: "http://homeassistant.local:8123"
  token: "ha-token"
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  topic_prefix: "home"
  use_tls: false
scheduler:
  tick_interval_seconds: 1800
  strict_names: true
  domains: ["light", "switch"]
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: "nop"
logging:
  backend: "sqlite"
api:
  addr: ":8080"
  jwt_secret: "s3cret"
feed:
  brokers: ["kafka:9092"]
  topic: "signals"
optimization:
  endpoint: "http://optimizer/graphql"
  api_key: "hub"
  auth:
    client_id: "id"
    auth_url: "http://idp/token"
sentry:
  dsn: ""
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"port", cfg.Port, PortMQTT},
		{"hass.base_url", cfg.Hass.BaseURL, "http://homeassistant.local:8123"},
		{"hass.timeout default", cfg.Hass.TimeoutSeconds, 10},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "home"},
		{"tick", cfg.Scheduler.TickIntervalSeconds, 1800},
		{"timeout default", cfg.Scheduler.DispatchTimeoutSeconds, 10},
		{"strict", cfg.Scheduler.StrictNames, true},
		{"domains", len(cfg.Scheduler.Domains), 2},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"logging.backend", cfg.Logging.Backend, BackendSQLite},
		{"logging.path default", cfg.Logging.Path, "dispatch.db"},
		{"api.addr", cfg.API.Addr, ":8080"},
		{"feed.topic", cfg.Feed.Topic, "signals"},
		{"feed.group default", cfg.Feed.GroupID, "hems-scheduler"},
		{"feed enabled", cfg.FeedEnabled(), true},
		{"optimization enabled", cfg.OptimizationEnabled(), true},
		{"optimization.poll default", cfg.Optimization.PollIntervalSeconds, 2},
		{"optimization.auth", cfg.Optimization.Auth.Enabled(), true},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"hass":{"base_url":"http://hub:8123"}}`)
	t.Setenv("K_HASS__TOKEN", "from-env")
	t.Setenv("K_API__ADDR", ":9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Hass.Token != "from-env" {
		t.Fatalf("expected env token, got %q", cfg.Hass.Token)
	}
	if cfg.API.Addr != ":9999" {
		t.Fatalf("expected env addr, got %q", cfg.API.Addr)
	}
	if cfg.Port != PortHass || cfg.Logging.Backend != BackendJSONL {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.FeedEnabled() || cfg.OptimizationEnabled() {
		t.Fatalf("feed and optimization should be disabled")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.toml", "")); err == nil {
		t.Fatal("expected unsupported format error")
	}
	if _, err := Load(writeConfig(t, "c.yaml", "port: carrier-pigeon\n")); err == nil {
		t.Fatal("expected port error")
	}
	if _, err := Load(writeConfig(t, "c.yaml", "hass:\n  base_url: \"\"\n")); err == nil {
		t.Fatal("expected missing base_url error")
	}
	bad := "hass:\n  base_url: http://hub\nlogging:\n  backend: postgres\n"
	if _, err := Load(writeConfig(t, "c.yaml", bad)); err == nil {
		t.Fatal("expected missing dsn error")
	}
	badTimeout := "hass:\n  base_url: http://hub\nscheduler:\n  tick_interval_seconds: 5\n  dispatch_timeout_seconds: 10\n"
	if _, err := Load(writeConfig(t, "c.yaml", badTimeout)); err == nil {
		t.Fatal("expected scheduler validation error")
	}
}

func TestLoggingValidate(t *testing.T) {
	c := LoggingConfig{Backend: BackendRotating}
	c.SetDefaults()
	if c.MaxSizeMB != 10 || c.Path != "dispatch.log" {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := (LoggingConfig{Backend: "mongo"}).Validate(); err == nil {
		t.Fatal("expected unknown backend error")
	}
	if err := (LoggingConfig{Backend: BackendNone}).Validate(); err != nil {
		t.Fatalf("none backend: %v", err)
	}
}
