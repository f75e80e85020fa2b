package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pengelbrecht/aptitude/internal/countdown"
)

// Engine runs a countdown without a UI and reports its progress through callbacks.
type Engine struct {
	clock countdown.Clock

	// Callbacks for output integration (optional). They run on a single
	// goroutine, in tick order.
	OnStart     func(cfg RunConfig, snap countdown.Snapshot)
	OnTick      func(snap countdown.Snapshot)
	OnThreshold func(level countdown.Urgency, snap countdown.Snapshot)
	OnEnd       func(result *RunResult)
}

// RunConfig configures an engine run.
type RunConfig struct {
	// Label names the countdown in output (empty = "countdown").
	Label string

	// Seconds is the countdown length. Must be positive.
	Seconds int

	// Thresholds overrides the default warning/critical thresholds.
	// Nil means the controller defaults, clamped to Seconds.
	Thresholds *countdown.Thresholds
}

// DefaultLabel is used when RunConfig.Label is empty.
const DefaultLabel = "countdown"

// Exit reasons reported in RunResult.
const (
	ExitExpired   = "expired"
	ExitCancelled = "context cancelled"
)

// RunResult contains the outcome of an engine run.
type RunResult struct {
	// Label is the countdown that was run.
	Label string

	// Final is the last snapshot of the countdown.
	Final countdown.Snapshot

	// Duration is the total wall-clock time.
	Duration time.Duration

	// ExitReason describes why the run ended.
	ExitReason string
}

// NewEngine creates an engine driven by clock (nil = system clock).
func NewEngine(clock countdown.Clock) *Engine {
	if clock == nil {
		clock = countdown.SystemClock
	}
	return &Engine{clock: clock}
}

// Run executes the countdown until it expires or ctx ends. On cancellation it
// returns the partial result together with ctx.Err().
func (e *Engine) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	if config.Label == "" {
		config.Label = DefaultLabel
	}

	snaps := make(chan countdown.Snapshot, 8)
	opts := []countdown.Option{
		countdown.WithOnTick(func(s countdown.Snapshot) { snaps <- s }),
	}
	if config.Thresholds != nil {
		opts = append(opts, countdown.WithThresholds(config.Thresholds.Warning, config.Thresholds.Critical))
	}

	log := logrus.WithField("label", config.Label)
	ctrl, err := countdown.Start(config.Seconds, func() {
		log.Debug("countdown expired")
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("start countdown: %w", err)
	}

	start := e.clock.Now()
	initial := ctrl.Snapshot()
	log.WithFields(logrus.Fields{
		"seconds":  config.Seconds,
		"warning":  ctrl.Thresholds().Warning,
		"critical": ctrl.Thresholds().Critical,
	}).Debug("countdown started")

	if e.OnStart != nil {
		e.OnStart(config, initial)
	}
	level := countdown.UrgencyNormal
	e.observeLevel(&level, initial)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(snaps)
		return countdown.Run(gctx, ctrl, e.clock)
	})
	g.Go(func() error {
		for s := range snaps {
			if e.OnTick != nil {
				e.OnTick(s)
			}
			e.observeLevel(&level, s)
		}
		return nil
	})
	runErr := g.Wait()

	result := &RunResult{
		Label:      config.Label,
		Final:      ctrl.Snapshot(),
		Duration:   e.clock.Now().Sub(start),
		ExitReason: ExitExpired,
	}
	if result.Final.State == countdown.Cancelled {
		result.ExitReason = ExitCancelled
	}
	log.WithField("reason", result.ExitReason).Debug("countdown finished")

	if e.OnEnd != nil {
		e.OnEnd(result)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			return result, runErr
		}
		return result, fmt.Errorf("run countdown: %w", runErr)
	}
	return result, nil
}

// observeLevel fires OnThreshold once for every urgency level s has newly
// entered, in increasing order.
func (e *Engine) observeLevel(last *countdown.Urgency, s countdown.Snapshot) {
	current := s.Urgency()
	for lvl := *last + 1; lvl <= current; lvl++ {
		if e.OnThreshold != nil {
			e.OnThreshold(lvl, s)
		}
	}
	if current > *last {
		*last = current
	}
}
