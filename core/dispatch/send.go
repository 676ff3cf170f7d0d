package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/hems/core/model"
)

// DefaultTimeout bounds a single port call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Send calls p in its own goroutine and waits at most timeout for the answer.
// A port that ignores its context cannot hold the caller past the timeout;
// its goroutine is left to finish on its own.
func Send(ctx context.Context, p Port, id model.DeviceID, value float64, timeout time.Duration) (time.Duration, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("dispatch: port panic: %v", r)
			}
		}()
		done <- p.Send(cctx, id, value)
	}()

	var err error
	select {
	case err = <-done:
	case <-cctx.Done():
		if ctx.Err() != nil {
			err = ctx.Err()
		} else {
			err = fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
	}
	lat := time.Since(start)
	observe(id.Domain(), err, lat)
	return lat, err
}
