package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/otterbrix/pgchurn/internal/utils"
	"github.com/otterbrix/pgchurn/pkg/targets/postgres"
)

const (
	exitFailure     = 1
	exitUnavailable = 2
	exitBadConfig   = 3
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:           "pgchurn",
		Short:         "Generate a continuous insert/update/delete workload against PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.AddCommand(initRunCMD())
	rootCmd.AddCommand(initConfigCMD())
}

func exitCode(err error) int {
	printError(err)
	switch {
	case errors.Is(err, postgres.ErrUnavailable):
		return exitUnavailable
	case errors.Is(err, utils.ErrInvalidStartID):
		return exitBadConfig
	default:
		return exitFailure
	}
}
