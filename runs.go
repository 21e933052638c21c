package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/herd/storage"
)

var (
	flagRunsDB    string
	flagRunsLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Long: `Display the most recent runs recorded in a SQLite run log.

Examples:
  herd runs --db runs.db
  herd runs --db runs.db --limit 50`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&flagRunsDB, "db", "~/.herd/runs.db", "Path to run log database")
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "Maximum runs to list")
}

func runRuns(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagRunsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(flagRunsLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Printf("  %-4s  %-20s  %-6s  %-9s  %-9s  %-7s  %s\n", "ID", "Seed", "Ticks", "Prey", "Pred", "Catches", "Date")
	fmt.Printf("  %-4s  %-20s  %-6s  %-9s  %-9s  %-7s  %s\n", "--", "----", "-----", "----", "----", "-------", "----")
	for _, r := range runs {
		status := ""
		if !r.Finished {
			status = " (unfinished)"
		}
		fmt.Printf("  %-4d  %-20d  %-6d  %-9s  %-9s  %-7d  %s%s\n",
			r.ID, r.Seed, r.Ticks,
			fmt.Sprintf("%d→%d", r.Prey, r.FinalPrey),
			fmt.Sprintf("%d→%d", r.Predators, r.FinalPredators),
			r.Catches, r.CreatedAt.Format("2006-01-02 15:04"), status)
	}
	return nil
}
