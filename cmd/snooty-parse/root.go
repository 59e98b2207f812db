package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i80and/snooty/internal/logging"
	"github.com/i80and/snooty/pkg/rst"
	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstconfig"
	"github.com/i80and/snooty/pkg/rstsm"
)

// exitCode is set by the root command's run function when diagnostics at or above
// the halt level were emitted; main reads it after Execute returns.
//
//nolint:gochecknoglobals // Exit status must outlive the cobra run func
var exitCode int

func newRootCommand(version, commit string) *cobra.Command {
	var debug bool
	var configPath string
	var tabWidth int

	rootCmd := &cobra.Command{
		Use:   "snooty-parse <file>",
		Short: "Parse a reStructuredText file and print its tree",
		Long: `snooty-parse runs the RST parser over a single source file, prints the
resulting document tree as an indented outline on stdout, and reports
diagnostics on stderr. The exit status is non-zero when any diagnostic
at or above the configured halt level was emitted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				logging.SetDefault(logging.NewInteractive())
				logging.SetLevel("debug")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(args[0], configPath, tabWidth, debug)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging of state transitions")
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML parser settings file")
	rootCmd.Flags().IntVar(&tabWidth, "tab-width", 0, "override tab expansion width")

	rootCmd.AddCommand(newVersionCommand(version, commit))

	return rootCmd
}

func newVersionCommand(version, commit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "snooty-parse %s (%s)\n", version, commit)
		},
	}
}

func runParse(path, configPath string, tabWidth int, debug bool) error {
	opts := rst.NewOptionParser()
	if configPath != "" {
		file, err := rstconfig.Load(configPath)
		if err != nil {
			return err
		}
		opts = file.Options()
	}
	if tabWidth > 0 {
		opts.TabWidth = tabWidth
	}
	if debug {
		opts.Observers = append(opts.Observers, &traceObserver{})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	doc, err := rst.Parse(path, string(data), opts)
	if err != nil {
		return err
	}

	fmt.Print(rst.Outline(doc.Root))

	logger := logging.Default()
	haltLevel := rstast.Severity(opts.HaltLevel)
	for _, d := range rst.Diagnostics(doc) {
		switch {
		case d.Severity >= rstast.LevelError:
			logger.Error(d.Message, logging.FieldSourceID, d.SourceID, logging.FieldLine, d.Line, logging.FieldSeverity, d.Severity.String())
		case d.Severity == rstast.LevelWarning:
			logger.Warn(d.Message, logging.FieldSourceID, d.SourceID, logging.FieldLine, d.Line)
		default:
			logger.Info(d.Message, logging.FieldSourceID, d.SourceID, logging.FieldLine, d.Line)
		}
		if d.Severity >= haltLevel {
			exitCode = 1
		}
	}
	return nil
}

// traceObserver logs every dispatched line and state change at debug level,
// wired in by the --debug flag per the state machine's observer hook.
type traceObserver struct{}

func (traceObserver) OnLine(sourceID string, line int, state string, text string) {
	logging.Default().Debug("line",
		logging.FieldSourceID, sourceID,
		logging.FieldLine, line,
		logging.FieldState, state,
		"text", text)
}

func (traceObserver) OnStateChange(from, to string) {
	logging.Default().Debug("state", "from", from, "to", to)
}

// Assert traceObserver satisfies the observer surface it is registered on.
var _ rstsm.Observer = traceObserver{}
