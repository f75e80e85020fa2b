package countdown

import "time"

// Cadence is a repeating tick source. Stop releases it; after Stop returns
// no further values are delivered on C.
type Cadence interface {
	C() <-chan time.Time
	Stop()
}

// Clock provides time-related operations.
// This interface enables dependency injection for testing countdown behavior.
type Clock interface {
	NewCadence(d time.Duration) Cadence
	Now() time.Time
}

// SystemClock is the default Clock implementation using the standard library.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) NewCadence(d time.Duration) Cadence {
	return tickerCadence{time.NewTicker(d)}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

type tickerCadence struct {
	t *time.Ticker
}

func (c tickerCadence) C() <-chan time.Time { return c.t.C }
func (c tickerCadence) Stop()               { c.t.Stop() }
