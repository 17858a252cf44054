package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const errMaxAttemptsFmt = "retry policy needs at least one attempt, got %d"

// allows for testing
var sleep = sleepContext

// RetryPolicy bounds how often and how patiently a fallible operation is
// retried. Every failure is treated as transient until MaxAttempts is spent.
type RetryPolicy struct {
	MaxAttempts int           `yaml:"attempts" mapstructure:"attempts"`
	Backoff     time.Duration `yaml:"backoff" mapstructure:"backoff"`
}

// Validate checks that the policy allows at least one attempt.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf(errMaxAttemptsFmt, p.MaxAttempts)
	}
	if p.Backoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative: %v", p.Backoff)
	}
	return nil
}

// AttemptObserver is notified after every attempt. attempt is 1-based and err
// is nil for the successful attempt.
type AttemptObserver func(attempt, maxAttempts int, err error)

// ExhaustedError is returned by Retry when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap returns the error of the final attempt.
func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Retry runs op until it succeeds or p.MaxAttempts attempts have failed,
// waiting p.Backoff between consecutive attempts. No wait follows the last
// attempt. Cancelling ctx stops the retries and returns ctx.Err().
func Retry(ctx context.Context, p RetryPolicy, op func(context.Context) error, observe AttemptObserver) error {
	if err := p.Validate(); err != nil {
		return err
	}
	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		last = op(ctx)
		if observe != nil {
			observe(attempt, p.MaxAttempts, last)
		}
		if last == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, p.Backoff); err != nil {
			return errors.Wrapf(err, "retry interrupted after attempt %d", attempt)
		}
	}
	return &ExhaustedError{Attempts: p.MaxAttempts, Last: last}
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
