// Package countdown implements the assessment countdown: a remaining-time
// value that decrements once per tick and signals expiry exactly once.
package countdown

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the lifecycle state of a Controller.
type State int

const (
	// Running is the only non-terminal state.
	Running State = iota

	// Expired means remaining time reached zero and the expiry callback fired.
	Expired

	// Cancelled means the countdown was stopped early; the callback never fires.
	Cancelled
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Expired:
		return "expired"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Default thresholds match the fixed five-minute/one-minute test timer.
const (
	// DefaultWarning is the warning threshold in seconds.
	DefaultWarning = 300

	// DefaultCritical is the critical threshold in seconds.
	DefaultCritical = 60
)

// Configuration errors returned by Start.
var (
	ErrInvalidDuration   = errors.New("countdown: duration must be positive")
	ErrNilCallback       = errors.New("countdown: expiry callback is required")
	ErrInvalidThresholds = errors.New("countdown: thresholds must satisfy 0 <= critical <= warning <= total")
)

// Thresholds are remaining-time cutoffs, in seconds, at or below which the
// countdown is presented as urgent.
type Thresholds struct {
	Warning  int
	Critical int
}

// Validate checks the thresholds against a total duration.
func (t Thresholds) Validate(total int) error {
	if t.Critical < 0 || t.Critical > t.Warning || t.Warning > total {
		return fmt.Errorf("%w (warning=%d, critical=%d, total=%d)",
			ErrInvalidThresholds, t.Warning, t.Critical, total)
	}
	return nil
}

// clamp limits default thresholds to the total duration.
func (t Thresholds) clamp(total int) Thresholds {
	if t.Warning > total {
		t.Warning = total
	}
	if t.Critical > t.Warning {
		t.Critical = t.Warning
	}
	return t
}

// Option configures a Controller.
type Option func(*Controller)

// WithThresholds sets explicit warning and critical thresholds.
// Unlike the defaults they are not clamped; Start rejects invalid values.
func WithThresholds(warning, critical int) Option {
	return func(c *Controller) {
		c.thresholds = Thresholds{Warning: warning, Critical: critical}
		c.explicit = true
	}
}

// WithOnTick registers an observer called with the new snapshot after every
// tick that decremented the remaining time, including the final one. Cancel
// waits for an in-flight observer call, so fn must not call Cancel.
func WithOnTick(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.onTick = fn
	}
}

// Controller owns a remaining-time value and signals expiry exactly once.
// It is safe for concurrent use; callbacks run without the lock held.
type Controller struct {
	// tickMu serializes a tick and its observer call against Cancel.
	tickMu sync.Mutex

	mu         sync.Mutex
	total      int
	remaining  int
	state      State
	thresholds Thresholds
	explicit   bool

	onExpire func()
	onTick   func(Snapshot)

	// done is closed on the transition out of Running.
	done chan struct{}
}

// Start creates a running countdown of totalSeconds. onExpire is invoked
// once, from the tick that reaches zero.
func Start(totalSeconds int, onExpire func(), opts ...Option) (*Controller, error) {
	if totalSeconds <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDuration, totalSeconds)
	}
	if onExpire == nil {
		return nil, ErrNilCallback
	}

	c := &Controller{
		total:      totalSeconds,
		remaining:  totalSeconds,
		state:      Running,
		thresholds: Thresholds{Warning: DefaultWarning, Critical: DefaultCritical},
		onExpire:   onExpire,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.explicit {
		if err := c.thresholds.Validate(totalSeconds); err != nil {
			return nil, err
		}
	} else {
		c.thresholds = c.thresholds.clamp(totalSeconds)
	}

	return c, nil
}

// Tick decrements the remaining time by one second. The tick that reaches
// zero moves the controller to Expired and invokes the expiry callback.
// Ticks outside the Running state are no-ops.
func (c *Controller) Tick() {
	c.tickMu.Lock()
	c.mu.Lock()
	if c.state != Running || c.remaining == 0 {
		c.mu.Unlock()
		c.tickMu.Unlock()
		return
	}

	c.remaining--
	expired := c.remaining == 0
	if expired {
		c.state = Expired
		close(c.done)
	}
	snap := c.snapshotLocked()
	onTick := c.onTick
	c.mu.Unlock()

	if onTick != nil {
		onTick(snap)
	}
	c.tickMu.Unlock()

	if expired {
		c.onExpire()
	}
}

// Cancel stops a running countdown without invoking the expiry callback.
// It returns false if the countdown had already ended. Once it returns, no
// observer call is in flight and none will follow.
func (c *Controller) Cancel() bool {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Running {
		return false
	}
	c.state = Cancelled
	close(c.done)
	return true
}

// Done returns a channel that is closed once the countdown expires or is cancelled.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining returns the remaining time in whole seconds.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Total returns the fixed duration in seconds.
func (c *Controller) Total() int {
	return c.total
}

// Thresholds returns the effective thresholds.
func (c *Controller) Thresholds() Thresholds {
	return c.thresholds
}

// Snapshot returns the current remaining time and derived presentation values.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Present(c.total, c.remaining, c.thresholds)
	s.State = c.state
	return s
}

// Snapshot is a read-only view of a countdown for presentation.
type Snapshot struct {
	Total     int
	Remaining int
	State     State

	// Formatted is the remaining time as mm:ss.
	Formatted string

	// Progress is the elapsed fraction in [0, 1].
	Progress float64

	Warning  bool
	Critical bool
}

// RemainingDuration returns the remaining time as a time.Duration.
func (s Snapshot) RemainingDuration() time.Duration {
	return time.Duration(s.Remaining) * time.Second
}

// Elapsed returns the elapsed whole seconds.
func (s Snapshot) Elapsed() int {
	return s.Total - s.Remaining
}

// Urgency is the presentation level implied by the thresholds.
type Urgency int

const (
	// UrgencyNormal is above both thresholds.
	UrgencyNormal Urgency = iota

	// UrgencyWarning is at or below the warning threshold.
	UrgencyWarning

	// UrgencyCritical is at or below the critical threshold.
	UrgencyCritical
)

// String returns the string representation of the urgency.
func (u Urgency) String() string {
	switch u {
	case UrgencyWarning:
		return "warning"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Urgency returns the most severe threshold the snapshot is within.
func (s Snapshot) Urgency() Urgency {
	switch {
	case s.Critical:
		return UrgencyCritical
	case s.Warning:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

// Present derives presentation values from an externally supplied remaining
// time. Remaining is clamped into [0, total]. A non-positive total yields a
// zero-progress snapshot.
func Present(total, remaining int, t Thresholds) Snapshot {
	if remaining < 0 {
		remaining = 0
	}
	if total > 0 && remaining > total {
		remaining = total
	}

	var progress float64
	if total > 0 {
		progress = float64(total-remaining) / float64(total)
	}

	state := Running
	if remaining == 0 {
		state = Expired
	}

	return Snapshot{
		Total:     total,
		Remaining: remaining,
		State:     state,
		Formatted: FormatClock(remaining),
		Progress:  progress,
		Warning:   remaining <= t.Warning,
		Critical:  remaining <= t.Critical,
	}
}

// FormatClock formats seconds as mm:ss. Minutes are not wrapped into hours.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
