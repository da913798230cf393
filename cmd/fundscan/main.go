package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "fundscan"
	version = "v1.2.0"
)

var (
	configPath string
	verbose    bool
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Multi-source fund and ETF performance scanner",
		Version: version,
		Long: `fundscan aggregates fund and ETF performance data from multiple
public sources, merges it by ISIN with per-field source priority, and
compares a personal fund universe against market benchmarks.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (defaults apply when omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newBenchmarkCmd())
	rootCmd.AddCommand(newSourcesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging picks console output on a TTY and JSON otherwise, so
// piped output stays machine-readable.
func setupLogging() {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = log.Output(os.Stderr)
	}
}
