package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/herd/config"
)

var flagCoefficientsFile string

var coefficientsCmd = &cobra.Command{
	Use:   "coefficients",
	Short: "Validate and print a coefficient table",
	Long: `Load a force coefficient table, check that every required key is
present, and print it. Without --file the table named by --coefficients,
the config, or the embedded defaults is used.

Examples:
  herd coefficients
  herd coefficients --file tuned.yaml`,
	RunE: runCoefficients,
}

func init() {
	coefficientsCmd.Flags().StringVar(&flagCoefficientsFile, "file", "", "Coefficient table to validate")
}

func runCoefficients(_ *cobra.Command, _ []string) error {
	var fc *config.ForceController
	var err error
	if flagCoefficientsFile != "" {
		fc, err = config.LoadCoefficients(flagCoefficientsFile)
	} else {
		_, fc, err = loadConfig()
	}
	if err != nil {
		return err
	}

	m := fc.Map()
	for _, key := range fc.Keys() {
		fmt.Printf("  %-20s  %g\n", key, m[key])
	}
	return nil
}
