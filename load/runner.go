package load

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/otterbrix/pgchurn/load/insertstrategy"
	"github.com/otterbrix/pgchurn/pkg/data"
	"github.com/otterbrix/pgchurn/pkg/targets"
)

// change for more useful testing
var printFn = fmt.Printf

// StatementError reports a failed iteration. The iteration's writes were
// rolled back and the loop stopped.
type StatementError struct {
	Iteration uint64
	Key       uint64
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("iteration %d (key %d) failed: %v", e.Iteration, e.Key, e.Err)
}

// Unwrap returns the underlying store error.
func (e *StatementError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying store error.
func (e *StatementError) Cause() error {
	return e.Err
}

// Runner is the workload loop. It owns the loop counter and writes one batch
// per iteration through its Processor. A Runner is not safe for concurrent
// use.
type Runner struct {
	conf  RunnerConfig
	proc  targets.Processor
	gen   *data.Generator
	pacer insertstrategy.Pacer
	stats *stats

	// i is the loop counter; the batch of iteration i has key i+1
	i uint64
}

// NewRunner returns a Runner writing through proc.
func NewRunner(conf RunnerConfig, proc targets.Processor) (*Runner, error) {
	if proc == nil {
		return nil, errors.New("runner needs a processor")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	pacer, err := insertstrategy.New(conf.Pacing, conf.PacingInterval, conf.Rate)
	if err != nil {
		return nil, errors.Wrap(err, "could not initialize pacing")
	}

	seed := conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen, err := data.NewGenerator(conf.GeneratorConfig, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}

	return &Runner{
		conf:  conf,
		proc:  proc,
		gen:   gen,
		pacer: pacer,
		stats: newStats(),
		i:     conf.StartID,
	}, nil
}

// Counter returns the current value of the loop counter.
func (r *Runner) Counter() uint64 {
	return r.i
}

// Stats returns a snapshot of the counters.
func (r *Runner) Stats() StatsSnapshot {
	return r.stats.snapshot()
}

// Run executes iterations until ctx is cancelled, the configured limit is
// reached, or an iteration fails. Cancellation is observed between
// iterations and while pacing, never in the middle of a batch, and is not an
// error. A failed iteration is returned as a *StatementError.
func (r *Runner) Run(ctx context.Context) error {
	reportCtx, stopReport := context.WithCancel(ctx)
	defer stopReport()
	reportDone := make(chan struct{})
	if r.conf.ReportingPeriod > 0 {
		go func() {
			defer close(reportDone)
			r.report(reportCtx, r.conf.ReportingPeriod)
		}()
	} else {
		close(reportDone)
	}

	start := time.Now()
	err := r.loop(ctx)
	stopReport()
	<-reportDone
	r.summary(time.Since(start))

	if len(r.conf.HDRLatencies) > 0 {
		printFn("Saving High Dynamic Range (HDR) Histogram of commit latencies to %s\n", r.conf.HDRLatencies)
		if hdrErr := r.stats.writeHDR(r.conf.HDRLatencies); hdrErr != nil && err == nil {
			err = errors.Wrap(hdrErr, "could not write HDR histogram")
		}
	}
	return err
}

func (r *Runner) loop(ctx context.Context) error {
	for n := uint64(0); r.conf.Limit == 0 || n < r.conf.Limit; n++ {
		if ctx.Err() != nil {
			return nil
		}
		startedWorkAt := time.Now()
		if err := r.iterate(ctx); err != nil {
			return err
		}
		if err := r.pacer.Wait(ctx, startedWorkAt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "pacing failed")
		}
	}
	return nil
}

// iterate writes the batch for the current counter value and advances the
// counter once the batch is committed.
func (r *Runner) iterate(ctx context.Context) error {
	if r.i%r.conf.ProgressEvery == 0 {
		printFn("Operation %d\n", r.i)
	}

	b := r.gen.Batch(r.i)
	started := time.Now()
	// a started batch runs to completion; a stop is honoured once it is committed
	rowCnt, err := r.proc.ProcessBatch(context.WithoutCancel(ctx), b, r.conf.DoLoad)
	if err != nil {
		return &StatementError{Iteration: r.i, Key: b.Key(), Err: err}
	}
	r.stats.recordLatency(time.Since(started))

	r.stats.rows.Add(rowCnt)
	r.stats.inserts.Add(2)
	if b.HasUpdate() {
		r.stats.updates.Inc()
	}
	if b.DeleteRandom {
		r.stats.deletes.Add(2)
	}
	r.stats.iterations.Inc()
	r.i++
	return nil
}

// summary prints the summary of statistics from the run
func (r *Runner) summary(took time.Duration) {
	s := r.stats.snapshot()
	rate := float64(s.Iterations) / took.Seconds()
	printFn("\nSummary:\n")
	printFn("ran %d iterations in %0.3fsec (mean rate %0.2f iterations/sec), next key %d\n", s.Iterations, took.Seconds(), rate, r.i+1)
	printFn("issued %d inserts, %d updates, %d deletes; %d rows affected\n", s.Inserts, s.Updates, s.Deletes, s.Rows)
	if s.Iterations > 0 {
		q := r.stats.latencyQuantiles()
		printFn("commit latency ms: q50 %0.3f, q95 %0.3f, q99 %0.3f, max %0.3f\n", q["q50"], q["q95"], q["q99"], q["q100"])
	}
}

// report handles periodic reporting of write stats
func (r *Runner) report(ctx context.Context, period time.Duration) {
	start := time.Now()
	prevTime := start
	prevIterations := uint64(0)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	printFn("time,per. iteration/s,iteration total,overall iteration/s,rows total\n")
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s := r.stats.snapshot()
			took := now.Sub(prevTime)
			rate := float64(s.Iterations-prevIterations) / took.Seconds()
			overallRate := float64(s.Iterations) / now.Sub(start).Seconds()
			printFn("%d,%0.2f,%d,%0.2f,%d\n", now.Unix(), rate, s.Iterations, overallRate, s.Rows)

			prevIterations = s.Iterations
			prevTime = now
		}
	}
}
