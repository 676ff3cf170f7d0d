// Package plugins maps configuration names to dispatch ports and outcome log
// stores.
package plugins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/hems/config"
	"github.com/kilianp07/hems/core/dispatch"
	dispatchlog "github.com/kilianp07/hems/core/dispatch/logging"
)

// PortFactory builds a dispatch port. The returned close function releases
// the transport and may be nil.
type PortFactory func(cfg *config.Config) (dispatch.Port, func(), error)

// LogStoreFactory builds an outcome log store.
type LogStoreFactory func(cfg config.LoggingConfig) (dispatchlog.LogStore, error)

var (
	mu        sync.RWMutex
	ports     = map[string]PortFactory{}
	logStores = map[string]LogStoreFactory{}
)

func RegisterPort(name string, f PortFactory) {
	mu.Lock()
	ports[name] = f
	mu.Unlock()
}

func RegisterLogStore(name string, f LogStoreFactory) {
	mu.Lock()
	logStores[name] = f
	mu.Unlock()
}

// NewPort builds the port selected by cfg.Port.
func NewPort(cfg *config.Config) (dispatch.Port, func(), error) {
	mu.RLock()
	f, ok := ports[cfg.Port]
	mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("unknown port type %q (known: %v)", cfg.Port, names(ports))
	}
	return f(cfg)
}

// NewLogStore builds the store selected by cfg.Backend.
func NewLogStore(cfg config.LoggingConfig) (dispatchlog.LogStore, error) {
	mu.RLock()
	f, ok := logStores[cfg.Backend]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown log backend %q (known: %v)", cfg.Backend, names(logStores))
	}
	return f(cfg)
}

func names[F any](m map[string]F) []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
