package load

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/otterbrix/pgchurn/load/insertstrategy"
	"github.com/otterbrix/pgchurn/pkg/data"
	"github.com/otterbrix/pgchurn/pkg/targets"
)

type testProcessor struct {
	batches []*data.Batch
	doLoads []bool
	// failAt makes the batch with that key fail
	failAt uint64
	// cancelAfter cancels the run once that many batches were processed
	cancelAfter int
	cancel      context.CancelFunc
}

func (p *testProcessor) ProcessBatch(_ context.Context, b *data.Batch, doLoad bool) (uint64, error) {
	if p.failAt != 0 && b.Key() == p.failAt {
		return 0, errors.New("duplicate key value violates unique constraint")
	}
	p.batches = append(p.batches, b)
	p.doLoads = append(p.doLoads, doLoad)
	if p.cancel != nil && len(p.batches) == p.cancelAfter {
		p.cancel()
	}
	return uint64(b.Len()), nil
}

// capturePrint collects printed lines. Read them only after Run returned.
func capturePrint(t *testing.T) *[]string {
	var mu sync.Mutex
	lines := []string{}
	old := printFn
	printFn = func(format string, args ...interface{}) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf(format, args...))
		return 0, nil
	}
	t.Cleanup(func() { printFn = old })
	return &lines
}

func testRunnerConfig(startID, limit uint64) RunnerConfig {
	conf := DefaultRunnerConfig()
	conf.StartID = startID
	conf.Limit = limit
	conf.Seed = 42
	conf.Pacing = insertstrategy.StrategyNone
	return conf
}

func newTestRunner(t *testing.T, conf RunnerConfig, p targets.Processor) *Runner {
	r, err := NewRunner(conf, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestRunKeysFollowOffset(t *testing.T) {
	capturePrint(t)
	p := &testProcessor{}
	r := newTestRunner(t, testRunnerConfig(1000, 250), p)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.batches) != 250 {
		t.Fatalf("incorrect number of batches: got %d want 250", len(p.batches))
	}
	for n, b := range p.batches {
		want := uint64(1000 + n + 1)
		if b.Primary.ID != want || b.Secondary.ID != want {
			t.Fatalf("batch %d: incorrect keys: primary %d secondary %d want %d", n, b.Primary.ID, b.Secondary.ID, want)
		}
	}
	if got := r.Counter(); got != 1250 {
		t.Errorf("incorrect counter: got %d want 1250", got)
	}
}

func TestRunFirstFortyIterations(t *testing.T) {
	capturePrint(t)
	p := &testProcessor{}
	r := newTestRunner(t, testRunnerConfig(0, 40), p)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deletes := 0
	for _, b := range p.batches {
		if b.DeleteRandom {
			deletes++
		}
		if b.HasUpdate() {
			t.Errorf("unexpected update at key %d", b.Key())
		}
	}
	if deletes != 1 {
		t.Errorf("incorrect number of delete pairs: got %d want 1", deletes)
	}
	if !p.batches[39].DeleteRandom {
		t.Error("expected the delete pair on key 40")
	}

	want := StatsSnapshot{Iterations: 40, Rows: 40*2 + 2, Inserts: 80, Updates: 0, Deletes: 2}
	if diff := cmp.Diff(want, r.Stats()); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestRunFirstIterationUpdates(t *testing.T) {
	capturePrint(t)
	p := &testProcessor{}
	r := newTestRunner(t, testRunnerConfig(89, 1), p)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.batches) != 1 {
		t.Fatalf("incorrect number of batches: got %d want 1", len(p.batches))
	}
	b := p.batches[0]
	if b.Key() != 90 {
		t.Errorf("incorrect key: got %d want 90", b.Key())
	}
	if !b.HasUpdate() {
		t.Error("expected the update on key 90")
	}
	if b.DeleteRandom {
		t.Error("unexpected delete on key 90")
	}
}

func TestRunSchedule(t *testing.T) {
	capturePrint(t)
	p := &testProcessor{}
	r := newTestRunner(t, testRunnerConfig(0, 720), p)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var both []uint64
	for _, b := range p.batches {
		key := b.Key()
		if got, want := b.HasUpdate(), key%90 == 0; got != want {
			t.Errorf("key %d: update %v want %v", key, got, want)
		}
		if got, want := b.DeleteRandom, key%40 == 0; got != want {
			t.Errorf("key %d: delete %v want %v", key, got, want)
		}
		if b.HasUpdate() && b.DeleteRandom {
			both = append(both, key)
		}
	}
	if diff := cmp.Diff([]uint64{360, 720}, both); diff != "" {
		t.Errorf("iterations with both update and delete (-want +got):\n%s", diff)
	}
	s := r.Stats()
	if s.Updates != 8 || s.Deletes != 36 {
		t.Errorf("incorrect update/delete counts: %+v", s)
	}
}

func TestRunProgressLines(t *testing.T) {
	lines := capturePrint(t)
	p := &testProcessor{}
	r := newTestRunner(t, testRunnerConfig(95, 210), p)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var progress []string
	for _, l := range *lines {
		if strings.HasPrefix(l, "Operation ") {
			progress = append(progress, l)
		}
	}
	want := []string{"Operation 100\n", "Operation 200\n", "Operation 300\n"}
	if diff := cmp.Diff(want, progress); diff != "" {
		t.Errorf("progress lines mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnStatementError(t *testing.T) {
	capturePrint(t)
	p := &testProcessor{failAt: 13}
	r := newTestRunner(t, testRunnerConfig(0, 0), p)

	err := r.Run(context.Background())
	var stmtErr *StatementError
	if !errors.As(err, &stmtErr) {
		t.Fatalf("expected StatementError, got %T: %v", err, err)
	}
	if stmtErr.Key != 13 || stmtErr.Iteration != 12 {
		t.Errorf("incorrect failed iteration: %+v", stmtErr)
	}
	if !strings.Contains(errors.Cause(err).Error(), "duplicate key") {
		t.Errorf("cause not preserved: %v", errors.Cause(err))
	}
	if len(p.batches) != 12 {
		t.Errorf("incorrect number of committed batches: got %d want 12", len(p.batches))
	}
	if got := r.Counter(); got != 12 {
		t.Errorf("counter advanced past the failed iteration: got %d want 12", got)
	}
}

func TestRunCancelledBetweenIterations(t *testing.T) {
	capturePrint(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &testProcessor{cancelAfter: 5, cancel: cancel}
	r := newTestRunner(t, testRunnerConfig(0, 0), p)

	if err := r.Run(ctx); err != nil {
		t.Fatalf("cancellation should not be an error, got %v", err)
	}
	if len(p.batches) != 5 {
		t.Errorf("incorrect number of batches: got %d want 5", len(p.batches))
	}
}

func TestRunCancelledWhilePacing(t *testing.T) {
	capturePrint(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conf := testRunnerConfig(0, 0)
	conf.Pacing = insertstrategy.StrategyDelay
	conf.PacingInterval = time.Hour
	p := &testProcessor{cancelAfter: 1, cancel: cancel}
	r := newTestRunner(t, conf, p)

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop while pacing")
	}
	if len(p.batches) != 1 {
		t.Errorf("incorrect number of batches: got %d want 1", len(p.batches))
	}
}

// ctxProcessor behaves like a store driver: it fails with the context error
// once the context it was handed is done.
type ctxProcessor struct {
	batches     int
	cancelAfter int
	cancel      context.CancelFunc
}

func (p *ctxProcessor) ProcessBatch(ctx context.Context, b *data.Batch, _ bool) (uint64, error) {
	p.batches++
	if p.batches == p.cancelAfter {
		p.cancel()
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return uint64(b.Len()), nil
}

func TestRunCancelledDuringBatch(t *testing.T) {
	capturePrint(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &ctxProcessor{cancelAfter: 3, cancel: cancel}
	r := newTestRunner(t, testRunnerConfig(0, 0), p)

	if err := r.Run(ctx); err != nil {
		t.Fatalf("a stop during a batch should not be an error, got %T: %v", err, err)
	}
	if p.batches != 3 {
		t.Errorf("incorrect number of batches: got %d want 3", p.batches)
	}
	if got := r.Counter(); got != 3 {
		t.Errorf("the interrupted batch should still be counted: got counter %d want 3", got)
	}
}

func TestRunReportStopsBeforeSummary(t *testing.T) {
	lines := capturePrint(t)
	conf := testRunnerConfig(0, 30)
	conf.ReportingPeriod = time.Millisecond
	conf.Pacing = insertstrategy.StrategyDelay
	conf.PacingInterval = time.Millisecond
	r := newTestRunner(t, conf, &testProcessor{})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summaryAt := -1
	for n, l := range *lines {
		if l == "\nSummary:\n" {
			summaryAt = n
		}
	}
	if summaryAt < 0 {
		t.Fatal("no summary printed")
	}
	for _, l := range (*lines)[summaryAt:] {
		if l != "" && l[0] >= '0' && l[0] <= '9' {
			t.Errorf("report line printed after the summary: %q", l)
		}
	}
}

func TestRunPassesDoLoad(t *testing.T) {
	capturePrint(t)
	p := &testProcessor{}
	conf := testRunnerConfig(0, 3)
	conf.DoLoad = false
	r := newTestRunner(t, conf, p)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]bool{false, false, false}, p.doLoads); diff != "" {
		t.Errorf("doLoad mismatch (-want +got):\n%s", diff)
	}
}

func TestRunWritesHDRLatencies(t *testing.T) {
	capturePrint(t)
	file := filepath.Join(t.TempDir(), "latencies.hdr")
	conf := testRunnerConfig(0, 10)
	conf.HDRLatencies = file
	r := newTestRunner(t, conf, &testProcessor{})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("could not read histogram: %v", err)
	}
	if !strings.Contains(string(b), "Percentile") {
		t.Errorf("unexpected histogram contents:\n%s", b)
	}
}

func TestNewRunnerErrors(t *testing.T) {
	cases := []struct {
		desc   string
		modify func(*RunnerConfig)
		proc   bool
	}{
		{desc: "no processor", modify: func(*RunnerConfig) {}},
		{desc: "zero progress period", modify: func(c *RunnerConfig) { c.ProgressEvery = 0 }, proc: true},
		{desc: "unknown pacing", modify: func(c *RunnerConfig) { c.Pacing = "burst" }, proc: true},
		{desc: "rate without a rate", modify: func(c *RunnerConfig) { c.Pacing = insertstrategy.StrategyRate }, proc: true},
	}
	for _, c := range cases {
		conf := testRunnerConfig(0, 1)
		c.modify(&conf)
		var err error
		if c.proc {
			_, err = NewRunner(conf, &testProcessor{})
		} else {
			_, err = NewRunner(conf, nil)
		}
		if err == nil {
			t.Errorf("%s: unexpected lack of error", c.desc)
		}
	}
}
