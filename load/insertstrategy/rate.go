package insertstrategy

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

type rateLimited struct {
	limiter *rate.Limiter
}

// RateLimited returns a pacer allowing at most perSecond iterations per
// second, without bursts.
func RateLimited(perSecond float64) (Pacer, error) {
	if perSecond <= 0 {
		return nil, fmt.Errorf("rate must be positive, can't be %v", perSecond)
	}
	return &rateLimited{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}, nil
}

func (r *rateLimited) Wait(ctx context.Context, _ time.Time) error {
	return r.limiter.Wait(ctx)
}
