// Package main provides the forecastctl CLI for computing burnout forecasts
// from local signal files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "forecastctl",
		Short: "Offline burnout forecasting",
		Long: `forecastctl scores wellness signals and computes burnout forecasts from
JSON or YAML signal files, without a database or network access.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newComputeCmd(),
		newScoreCmd(),
		newTokenCmd(),
	)
	return rootCmd
}
