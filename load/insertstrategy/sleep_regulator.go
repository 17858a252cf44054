package insertstrategy

import (
	"context"
	"time"
)

// sleepRegulator keeps at least interval between the start of two consecutive
// iterations. If an iteration took longer than that, the next one starts
// right away.
type sleepRegulator struct {
	interval time.Duration
	nowFn    nowProviderFn
	sleep    sleepFn
}

// NewSleepRegulator returns a pacer keeping a minimum of interval between
// iteration starts.
func NewSleepRegulator(interval time.Duration) Pacer {
	return &sleepRegulator{
		interval: interval,
		nowFn:    time.Now,
		sleep:    sleepContext,
	}
}

func (s *sleepRegulator) Wait(ctx context.Context, startedWorkAt time.Time) error {
	// if started work at x, should sleep until x+interval
	shouldSleepUntil := startedWorkAt.Add(s.interval)
	now := s.nowFn()
	// if the iteration took more time than required to sleep between iterations
	if !shouldSleepUntil.After(now) {
		return ctx.Err()
	}

	return s.sleep(ctx, shouldSleepUntil.Sub(now))
}
