package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/otterbrix/pgchurn/internal/utils"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
	infoColor = color.New(color.FgCyan)
)

// attemptPrinter reports connection attempts against target.
func attemptPrinter(target string) utils.AttemptObserver {
	return func(attempt, maxAttempts int, err error) {
		if err == nil {
			okColor.Printf("✓ connected to %s (attempt %d of %d)\n", target, attempt, maxAttempts)
			return
		}
		warnColor.Printf("connection error: %v. attempt %d of %d\n", err, attempt, maxAttempts)
	}
}

func printInfo(format string, args ...interface{}) {
	infoColor.Printf(format, args...)
}

func printError(err error) {
	errColor.Fprintf(os.Stderr, "✗ %v\n", err)
}
