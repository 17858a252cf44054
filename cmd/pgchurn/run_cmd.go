package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/otterbrix/pgchurn/internal/utils"
	"github.com/otterbrix/pgchurn/load"
	"github.com/otterbrix/pgchurn/pkg/targets/postgres"
)

func initRunCMD() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the database and write the workload until stopped",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.GetViper()
			if err := utils.SetupConfigFile(v, cmd.Flags(), cfgFile); err != nil {
				return errors.Wrap(err, "fatal error config file")
			}
			conf, err := parseConfig(v)
			if err != nil {
				return err
			}
			if used := v.ConfigFileUsed(); used != "" {
				printInfo("Using config file: %s\n", used)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWorkload(ctx, conf)
		},
	}
	cmd.Flags().AddFlagSet(runCmdFlags())
	return cmd
}

// change for more useful testing
var (
	connectFn       = connect
	waitForTablesFn = postgres.WaitForTables
	newRunnerFn     = load.NewRunner
)

func connect(ctx context.Context, conf *Config) (*sqlx.DB, error) {
	connector := postgres.NewConnector(&conf.ConnectOptions, conf.retryPolicy())
	connector.Observe = attemptPrinter(conf.Redacted())
	return connector.Connect(ctx)
}

// runWorkload acquires the connection, then hands it to the workload loop.
// The connection is released on every return path.
func runWorkload(ctx context.Context, conf *Config) error {
	var db *sqlx.DB
	if conf.DoLoad {
		var err error
		db, err = connectFn(ctx, conf)
		if err != nil {
			return err
		}
		if conf.WaitForTables > 0 {
			if err := waitForTablesFn(ctx, db, conf.Tables, conf.WaitForTables); err != nil {
				db.Close()
				return err
			}
		}
	}

	proc, err := postgres.NewProcessor(db, conf.Tables)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return err
	}
	defer proc.Close(conf.DoLoad)

	if len(conf.WriteProfile) > 0 {
		profileCtx, stopProfile := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			profileCPUAndMem(profileCtx, conf.WriteProfile, conf.User, conf.DBName)
		}()
		defer func() {
			stopProfile()
			wg.Wait()
		}()
	}

	runner, err := newRunnerFn(conf.RunnerConfig, proc)
	if err != nil {
		return err
	}
	printInfo("starting workload at key %d\n", conf.StartID+1)
	return runner.Run(ctx)
}
