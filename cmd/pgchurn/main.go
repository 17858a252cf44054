// pgchurn drives a PostgreSQL database with a continuous synthetic write
// workload: every iteration inserts a row into two tables and, on a fixed
// schedule, updates or deletes random rows. It resumes from the offset given
// in START_ID and runs until it is stopped.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
