package insertstrategy

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Pacing strategies accepted by New.
const (
	// StrategyDelay waits a fixed interval after every iteration.
	StrategyDelay = "delay"
	// StrategyInterval keeps a fixed interval between iteration starts.
	StrategyInterval = "interval"
	// StrategyRate caps the number of iterations per second.
	StrategyRate = "rate"
	// StrategyNone runs iterations back to back.
	StrategyNone = "none"

	// DefaultInterval is the pause between two iterations of the reference workload.
	DefaultInterval = 900 * time.Millisecond
)

// ValidStrategies lists every accepted pacing strategy.
var ValidStrategies = []string{StrategyDelay, StrategyInterval, StrategyRate, StrategyNone}

type nowProviderFn func() time.Time
type sleepFn func(ctx context.Context, d time.Duration) error

// Pacer bounds the write rate of the workload. Wait is called once the work of
// an iteration is done and returns early with ctx.Err() if ctx is cancelled.
type Pacer interface {
	Wait(ctx context.Context, startedWorkAt time.Time) error
}

// New returns the Pacer for strategy. interval is used by the delay and
// interval strategies, perSecond by the rate strategy.
func New(strategy string, interval time.Duration, perSecond float64) (Pacer, error) {
	switch strings.ToLower(strategy) {
	case StrategyDelay, "":
		if interval < 0 {
			return nil, fmt.Errorf("pacing interval cannot be negative: %v", interval)
		}
		return FixedDelay(interval), nil
	case StrategyInterval:
		if interval < 0 {
			return nil, fmt.Errorf("pacing interval cannot be negative: %v", interval)
		}
		return NewSleepRegulator(interval), nil
	case StrategyRate:
		return RateLimited(perSecond)
	case StrategyNone:
		return NoWait(), nil
	default:
		return nil, fmt.Errorf("unknown pacing strategy '%s'; allowed: %v", strategy, ValidStrategies)
	}
}

type noWait struct{}

// NoWait returns a pacer that never waits.
func NoWait() Pacer {
	return &noWait{}
}

func (n *noWait) Wait(ctx context.Context, _ time.Time) error {
	return ctx.Err()
}

type fixedDelay struct {
	delay time.Duration
	sleep sleepFn
}

// FixedDelay returns a pacer that always waits d, regardless of how long the
// iteration took.
func FixedDelay(d time.Duration) Pacer {
	return &fixedDelay{delay: d, sleep: sleepContext}
}

func (f *fixedDelay) Wait(ctx context.Context, _ time.Time) error {
	return f.sleep(ctx, f.delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
