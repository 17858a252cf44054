package utils

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every setting read from the environment.
	EnvPrefix = "PGCHURN"
	// StartIDKey is the config key of the starting offset.
	StartIDKey = "start-id"
	// StartIDEnv is the bare environment variable holding the starting offset.
	StartIDEnv = "START_ID"

	dotEnvFile = ".env"
)

// SetupConfigFile defines the settings for the configuration file support.
// Values resolve in order: flags, environment, config file, defaults. An
// optional .env file in the working directory is loaded into the
// environment first without overriding variables that are already set.
func SetupConfigFile(v *viper.Viper, fs *pflag.FlagSet, cfgFile string) error {
	if err := godotenv.Load(dotEnvFile); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return errors.Wrapf(err, "could not load %s", dotEnvFile)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(StartIDKey, StartIDEnv, EnvPrefix+"_"+StartIDEnv); err != nil {
		return errors.Wrap(err, "could not bind START_ID")
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return errors.Wrap(err, "could not bind flags to configuration")
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// Ignore error if config file not found.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return err
		}
	}

	return nil
}
