package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/herd/game"
	"github.com/pthm-cable/herd/storage"
)

var (
	flagTicks     int
	flagRealtime  bool
	flagOutputDir string
	flagDBPath    string
	flagLogStats  bool
	flagWindow    int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation",
	Long: `Run a single simulation until --ticks steps have completed, or until
interrupted when --ticks is 0.

With --realtime the simulation is paced against the wall clock at its
fixed timestep. Otherwise it runs as fast as possible.

Examples:
  herd run --ticks 5000 --output-dir ./out
  herd run --realtime --ticks 0
  herd run --seed 42 --db runs.db --log-stats`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&flagTicks, "ticks", 2000, "Stop after N ticks (0 = until interrupted)")
	runCmd.Flags().BoolVar(&flagRealtime, "realtime", false, "Pace the simulation against the wall clock")
	runCmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "Output directory for CSV logs and snapshots")
	runCmd.Flags().StringVar(&flagDBPath, "db", "", "SQLite run log (empty = off)")
	runCmd.Flags().BoolVar(&flagLogStats, "log-stats", false, "Log window stats via slog")
	runCmd.Flags().IntVar(&flagWindow, "stats-window", 0, "Stats window in ticks (0 = use config)")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, fc, err := loadConfig()
	if err != nil {
		return err
	}

	opts := game.Options{
		Seed:        resolveSeed(),
		LogStats:    flagLogStats,
		OutputDir:   flagOutputDir,
		WindowTicks: flagWindow,
	}

	if flagDBPath != "" {
		store, err := storage.Open(flagDBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	}

	g, err := game.NewGameWithOptions(cfg, fc, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	slog.Info("starting simulation",
		"seed", opts.Seed,
		"ticks", flagTicks,
		"realtime", flagRealtime,
		"output_dir", flagOutputDir,
	)

	if flagRealtime {
		err = g.RunRealtime(ctx, flagTicks, time.Second/60)
	} else {
		err = g.Run(ctx, flagTicks)
	}
	// An interrupt ends the run normally
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if uerr := g.Unload(); err == nil {
		err = uerr
	}
	return err
}
