package config

import (
	"fmt"
)

// Outcome log backends.
const (
	BackendNone     = "none"
	BackendJSONL    = "jsonl"
	BackendRotating = "rotating"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// LoggingConfig defines settings for dispatch outcome storage and rotation.
type LoggingConfig struct {
	// Backend selects the log store type: "none", "jsonl", "rotating",
	// "sqlite" or "postgres".
	Backend string `json:"backend"`
	// Path is the file location of the file based stores.
	Path string `json:"path"`
	// DSN is the postgres connection string.
	DSN string `json:"dsn"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendJSONL
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendSQLite:
			c.Path = "dispatch.db"
		default:
			c.Path = "dispatch.log"
		}
	}
	if c.Backend == BackendRotating && c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch c.Backend {
	case BackendNone:
		return nil
	case BackendJSONL, BackendRotating, BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("logging: path is required")
		}
	case BackendPostgres:
		if c.DSN == "" {
			return fmt.Errorf("logging: dsn is required for postgres")
		}
	default:
		return fmt.Errorf("logging: unknown backend %s", c.Backend)
	}
	return nil
}
