package main

import (
	"time"

	"github.com/otterbrix/pgchurn/internal/utils"
	"github.com/otterbrix/pgchurn/load"
	"github.com/otterbrix/pgchurn/pkg/targets/postgres"
)

// Config is everything the run command needs, as resolved from flags,
// environment and config file.
type Config struct {
	postgres.ConnectOptions `yaml:",inline" mapstructure:",squash"`
	postgres.Tables         `yaml:",inline" mapstructure:",squash"`
	load.RunnerConfig       `yaml:",inline" mapstructure:",squash"`

	ConnectAttempts int           `yaml:"connect-attempts" mapstructure:"connect-attempts"`
	ConnectBackoff  time.Duration `yaml:"connect-backoff" mapstructure:"connect-backoff"`
	// WaitForTables, when positive, is how long to wait for the tables to be
	// created by another client before starting.
	WaitForTables time.Duration `yaml:"wait-for-tables" mapstructure:"wait-for-tables"`
	WriteProfile  string        `yaml:"write-profile" mapstructure:"write-profile"`
}

func (c *Config) retryPolicy() utils.RetryPolicy {
	return utils.RetryPolicy{
		MaxAttempts: c.ConnectAttempts,
		Backoff:     c.ConnectBackoff,
	}
}
