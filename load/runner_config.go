package load

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/otterbrix/pgchurn/internal/utils"
	"github.com/otterbrix/pgchurn/load/insertstrategy"
	"github.com/otterbrix/pgchurn/pkg/data"
)

const (
	// DefaultProgressEvery is how many iterations pass between progress lines.
	DefaultProgressEvery = 100

	errProgressZero = "progress-every must be greater than 0"
)

// RunnerConfig holds the settings of the workload loop.
type RunnerConfig struct {
	// StartID is the externally supplied offset; the first key written is
	// StartID+1.
	StartID uint64 `yaml:"start-id" mapstructure:"start-id"`
	// Limit stops the loop after that many iterations. 0 runs until stopped.
	Limit           uint64        `yaml:"limit" mapstructure:"limit"`
	DoLoad          bool          `yaml:"do-load" mapstructure:"do-load"`
	ProgressEvery   uint64        `yaml:"progress-every" mapstructure:"progress-every"`
	ReportingPeriod time.Duration `yaml:"reporting-period" mapstructure:"reporting-period"`
	Seed            int64         `yaml:"seed" mapstructure:"seed"`
	HDRLatencies    string        `yaml:"hdr-latencies" mapstructure:"hdr-latencies"`

	Pacing         string        `yaml:"pacing" mapstructure:"pacing"`
	PacingInterval time.Duration `yaml:"pacing-interval" mapstructure:"pacing-interval"`
	Rate           float64       `yaml:"rate" mapstructure:"rate"`

	data.GeneratorConfig `yaml:",inline" mapstructure:",squash"`
}

// DefaultRunnerConfig returns the settings of the reference workload.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		DoLoad:          true,
		ProgressEvery:   DefaultProgressEvery,
		Pacing:          insertstrategy.StrategyDelay,
		PacingInterval:  insertstrategy.DefaultInterval,
		GeneratorConfig: data.DefaultGeneratorConfig(),
	}
}

// AddToFlagSet adds the runner flags to fs with their defaults.
func (c RunnerConfig) AddToFlagSet(fs *pflag.FlagSet) {
	d := DefaultRunnerConfig()
	fs.String(utils.StartIDKey, "", "Starting offset; the first key written is start-id+1 (also read from START_ID)")
	fs.Uint64("limit", d.Limit, "Number of iterations to run (0 = until stopped)")
	fs.Bool("do-load", d.DoLoad, "Whether to write data. Set this flag to false to only generate batches.")
	fs.Uint64("progress-every", d.ProgressEvery, "Print the loop counter every this many iterations")
	fs.Duration("reporting-period", d.ReportingPeriod, "Period to report write stats (0 = disabled)")
	fs.Int64("seed", d.Seed, "PRNG seed (default: 0, which uses the current timestamp)")
	fs.String("hdr-latencies", d.HDRLatencies, "File to write the High Dynamic Range (HDR) Histogram of commit latencies to")
	fs.String("pacing", d.Pacing, fmt.Sprintf("Pacing strategy, one of %v", insertstrategy.ValidStrategies))
	fs.Duration("pacing-interval", d.PacingInterval, "Pause used by the delay and interval pacing strategies")
	fs.Float64("rate", d.Rate, "Iterations per second for the rate pacing strategy")
	fs.Uint64("update-every", d.UpdateEvery, "Update a random row when the key is a multiple of this (0 = never)")
	fs.Uint64("delete-every", d.DeleteEvery, "Delete a random row from each table when the key is a multiple of this (0 = never)")
}

// Validate checks the settings that cannot be fixed up with a default.
func (c *RunnerConfig) Validate() error {
	if c.ProgressEvery == 0 {
		return fmt.Errorf(errProgressZero)
	}
	if !utils.IsIn(c.Pacing, insertstrategy.ValidStrategies) {
		return fmt.Errorf("unknown pacing strategy '%s'; allowed: %v", c.Pacing, insertstrategy.ValidStrategies)
	}
	return nil
}
