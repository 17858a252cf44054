package load

import (
	"bytes"
	"io/ioutil"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"go.uber.org/atomic"
)

const (
	// commit latencies are recorded in microseconds, up to one minute
	minLatency     = 1
	maxLatency     = int64(time.Minute / time.Microsecond)
	latencySigFigs = 3
)

// stats are written by the loop and read concurrently by the reporter.
type stats struct {
	iterations atomic.Uint64
	rows       atomic.Uint64
	inserts    atomic.Uint64
	updates    atomic.Uint64
	deletes    atomic.Uint64

	// only touched by the loop goroutine
	latencies *hdrhistogram.Histogram
}

func newStats() *stats {
	return &stats{
		latencies: hdrhistogram.New(minLatency, maxLatency, latencySigFigs),
	}
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Iterations uint64
	Rows       uint64
	Inserts    uint64
	Updates    uint64
	Deletes    uint64
}

func (s *stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Iterations: s.iterations.Load(),
		Rows:       s.rows.Load(),
		Inserts:    s.inserts.Load(),
		Updates:    s.updates.Load(),
		Deletes:    s.deletes.Load(),
	}
}

func (s *stats) recordLatency(took time.Duration) {
	us := int64(took / time.Microsecond)
	if us < minLatency {
		us = minLatency
	} else if us > maxLatency {
		us = maxLatency
	}
	// the value is clamped to the trackable range, so this cannot fail
	_ = s.latencies.RecordValue(us)
}

// latencyQuantiles returns commit latency quantiles in milliseconds.
func (s *stats) latencyQuantiles() map[string]float64 {
	q := map[string]float64{"q50": 0, "q95": 0, "q99": 0, "q100": 0}
	if s.latencies.TotalCount() == 0 {
		return q
	}
	q["q50"] = float64(s.latencies.ValueAtQuantile(50.0)) / 10e2
	q["q95"] = float64(s.latencies.ValueAtQuantile(95.0)) / 10e2
	q["q99"] = float64(s.latencies.ValueAtQuantile(99.0)) / 10e2
	q["q100"] = float64(s.latencies.ValueAtQuantile(100.0)) / 10e2
	return q
}

func (s *stats) writeHDR(fileName string) error {
	var b bytes.Buffer
	if _, err := s.latencies.PercentilesPrint(&b, 10, 1000.0); err != nil {
		return err
	}
	return ioutil.WriteFile(fileName, b.Bytes(), 0644)
}
