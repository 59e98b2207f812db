// Package main is the entry point for the snooty-parse CLI, a small
// driver that parses one reStructuredText file and prints the resulting
// tree and diagnostics.
package main

import (
	"os"

	"github.com/i80and/snooty/internal/logging"
)

// Build-time variables set via ldflags.
//
//nolint:gochecknoglobals // Version variables must be package-level for ldflags injection
var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCommand(version, commit)
	if err := rootCmd.Execute(); err != nil {
		logging.Default().Error("command failed", logging.FieldError, err)
		return 1
	}
	return exitCode
}
