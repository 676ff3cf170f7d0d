package plugins

import (
	"github.com/kilianp07/hems/config"
	"github.com/kilianp07/hems/core/dispatch"
	dispatchlog "github.com/kilianp07/hems/core/dispatch/logging"
	"github.com/kilianp07/hems/infra/hass"
	"github.com/kilianp07/hems/infra/mqtt"
)

func init() {
	RegisterPort(config.PortHass, func(cfg *config.Config) (dispatch.Port, func(), error) {
		c, err := hass.NewClient(cfg.Hass)
		if err != nil {
			return nil, nil, err
		}
		return hass.NewPort(c), nil, nil
	})
	RegisterPort(config.PortMQTT, func(cfg *config.Config) (dispatch.Port, func(), error) {
		p, err := mqtt.NewPort(cfg.MQTT)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Disconnect, nil
	})

	RegisterLogStore(config.BackendNone, func(config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NopStore{}, nil
	})
	RegisterLogStore(config.BackendJSONL, func(c config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewJSONLStore(c.Path)
	})
	RegisterLogStore(config.BackendRotating, func(c config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
	RegisterLogStore(config.BackendSQLite, func(c config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewSQLiteStore(c.Path)
	})
	RegisterLogStore(config.BackendPostgres, func(c config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewPostgresStore(c.DSN)
	})
}
