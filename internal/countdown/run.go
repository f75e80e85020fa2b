package countdown

import (
	"context"
	"time"
)

// Interval is the tick cadence of a countdown.
const Interval = time.Second

// Run drives c from a one-second cadence obtained from clock until the
// countdown expires, is cancelled, or ctx ends. The cadence is released on
// every exit path. When ctx ends first the countdown is cancelled and
// ctx.Err() is returned.
func Run(ctx context.Context, c *Controller, clock Clock) error {
	if clock == nil {
		clock = SystemClock
	}

	cadence := clock.NewCadence(Interval)
	defer cadence.Stop()

	for {
		select {
		case <-c.Done():
			return nil
		case <-ctx.Done():
			c.Cancel()
			return ctx.Err()
		case <-cadence.C():
			c.Tick()
		}
	}
}
