package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/otterbrix/pgchurn/internal/utils"
)

// parseConfig resolves the run configuration. The starting offset is
// checked first so a bad START_ID fails before anything else happens.
func parseConfig(v *viper.Viper) (*Config, error) {
	startID, err := utils.ParseStartID(v.GetString(utils.StartIDKey))
	if err != nil {
		return nil, err
	}

	// the raw value may carry whitespace the decoder rejects
	v.Set(utils.StartIDKey, startID)

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}

	if err := conf.Tables.Validate(); err != nil {
		return nil, err
	}
	if err := conf.retryPolicy().Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid connect-attempts/connect-backoff")
	}
	if err := conf.RunnerConfig.Validate(); err != nil {
		return nil, err
	}
	if conf.WaitForTables < 0 {
		return nil, errors.Errorf("wait-for-tables cannot be negative: %v", conf.WaitForTables)
	}
	return &conf, nil
}
