// herd simulates prey and predator boids on a procedural island.
//
// Usage:
//
//	herd run              - Run one simulation
//	herd sweep            - Run several seeds concurrently
//	herd coefficients     - Validate and print a coefficient table
//	herd runs             - List recorded runs
//
// Global flags:
//
//	--config <path>        - Config YAML merged over the embedded defaults
//	--coefficients <path>  - Force coefficient table (overrides config)
//	--seed <value>         - RNG seed (0 = time-based)
//	--log-format json|text - Log output format
//	--log-level <level>    - debug, info, warn or error
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/herd/config"
)

var (
	// Global flags
	flagConfig       string
	flagCoefficients string
	flagSeed         int64
	flagLogFormat    string
	flagLogLevel     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "herd",
	Short: "Prey and predator boid simulation",
	Long: `herd runs a steering-behavior simulation of prey herds, predators,
food resources and obstacles on a procedural island.

Examples:
  herd run --ticks 2000 --output-dir ./out
  herd run --realtime --log-format text
  herd sweep --seeds 8 --parallel 4 --db runs.db
  herd coefficients --file tuned.yaml
  herd runs --db runs.db`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(flagLogFormat, flagLogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config.yaml (empty = use defaults)")
	rootCmd.PersistentFlags().StringVar(&flagCoefficients, "coefficients", "", "Path to coefficient table (empty = config or embedded)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = time-based)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "json", "Log format: json or text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(coefficientsCmd)
	rootCmd.AddCommand(runsCmd)
}

// setupLogging installs the default slog logger. JSON goes to stdout for
// structured logging; text uses the charm handler on stderr.
func setupLogging(format, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	case "text":
		handler = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "herd",
			Level:           log.Level(lvl),
		})
	default:
		return fmt.Errorf("invalid --log-format %q: want json or text", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig loads the simulation config and the coefficient table named
// by the global flags. The --coefficients flag wins over config.coefficients.
func loadConfig() (*config.Config, *config.ForceController, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}

	path := cfg.Coefficients
	if flagCoefficients != "" {
		path = flagCoefficients
	}
	fc, err := config.LoadCoefficients(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, fc, nil
}

// resolveSeed returns the global seed, or a time-based one when unset.
func resolveSeed() int64 {
	if flagSeed != 0 {
		return flagSeed
	}
	return time.Now().UnixNano()
}
