package dispatch

import (
	"context"
	"errors"

	"github.com/kilianp07/hems/core/model"
)

// ErrTimeout is returned when a port does not answer within the dispatch
// timeout.
var ErrTimeout = errors.New("dispatch: timeout")

// Port actuates a device. How the value is interpreted (on/off, setpoint...)
// is decided by the implementation from the device domain.
type Port interface {
	Send(ctx context.Context, id model.DeviceID, value float64) error
}

// PortFunc adapts a function to the Port interface.
type PortFunc func(ctx context.Context, id model.DeviceID, value float64) error

func (f PortFunc) Send(ctx context.Context, id model.DeviceID, value float64) error {
	return f(ctx, id, value)
}

// NopPort accepts every command without side effects.
type NopPort struct{}

func (NopPort) Send(context.Context, model.DeviceID, float64) error { return nil }
