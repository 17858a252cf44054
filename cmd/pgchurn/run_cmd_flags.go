package main

import (
	"github.com/spf13/pflag"

	"github.com/otterbrix/pgchurn/load"
	"github.com/otterbrix/pgchurn/pkg/targets/postgres"
)

func runCmdFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("", pflag.ContinueOnError)
	addConnectionFlags(fs)
	addTableFlags(fs)
	load.DefaultRunnerConfig().AddToFlagSet(fs)
	fs.String("write-profile", "", "File to write CPU/memory samples of the server backend to")
	return fs
}

func addConnectionFlags(fs *pflag.FlagSet) {
	fs.String("postgres", "sslmode=disable",
		"String of additional PostgreSQL connection parameters, e.g., 'sslmode=disable'. Parameters for host, port, user, password and database will be ignored.")
	fs.String("host", "postgres", "Hostname of the PostgreSQL instance")
	fs.String("port", "5432", "Which port to connect to on the database host")
	fs.String("user", "postgres", "User to connect to PostgreSQL as")
	fs.String("pass", "postgres", "Password for the user connecting to PostgreSQL (leave blank if not password protected)")
	fs.String("db-name", "postgres", "Name of the database holding the tables")
	fs.Bool("force-text-format", false, "Send/receive data in text format (uses the lib/pq driver)")
	fs.Int("connect-attempts", postgres.DefaultConnectAttempts, "Number of connection attempts before giving up")
	fs.Duration("connect-backoff", postgres.DefaultConnectBackoff, "Time to wait between connection attempts")
	fs.Duration("wait-for-tables", 0, "How long to wait for the tables to exist before starting (0 = don't check)")
}

func addTableFlags(fs *pflag.FlagSet) {
	fs.String("primary-table", postgres.DefaultPrimaryTable, "Table receiving the primary records")
	fs.String("secondary-table", postgres.DefaultSecondaryTable, "Table receiving the secondary records")
}
