package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/irfndi/wellcast-go/internal/models"
	"github.com/irfndi/wellcast-go/internal/services"
)

type computeOpts struct {
	signalsPath  string
	userID       string
	overridePath string
	at           string
	verbose      bool
}

func newComputeCmd() *cobra.Command {
	var opts computeOpts

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute a burnout forecast from a signal file",
		Long: `Scores every signal in the file, runs the forecast engine and prints the
forecast as JSON. Recommendations come from the built-in templates only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.signalsPath, "signals", "", "Path to a JSON or YAML signal file, or - for stdin (required)")
	cmd.Flags().StringVar(&opts.userID, "user", "", "Subject the forecast is for (required)")
	cmd.Flags().StringVar(&opts.overridePath, "config", "", "Path to a JSON or YAML forecast config override")
	cmd.Flags().StringVar(&opts.at, "at", "", "Evaluate as of this RFC3339 time instead of now")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log engine details to stderr")
	_ = cmd.MarkFlagRequired("signals")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runCompute(cmd *cobra.Command, opts computeOpts) error {
	signals, err := loadSignals(opts.signalsPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	// An empty file is allowed and yields a degraded forecast
	if len(signals) > 0 {
		if err := services.ValidateSignals(signals); err != nil {
			return err
		}
	}

	override, err := loadOverride(opts.overridePath)
	if err != nil {
		return err
	}
	if err := services.ValidateOverride(override); err != nil {
		return err
	}

	clock := time.Now
	if opts.at != "" {
		at, err := time.Parse(time.RFC3339, opts.at)
		if err != nil {
			return fmt.Errorf("invalid --at time: %w", err)
		}
		clock = func() time.Time { return at }
	}

	engine := services.NewForecastEngine(
		services.NewDefaultScoringRubric(),
		models.DefaultForecastConfig(),
		cliLogger(cmd.ErrOrStderr(), opts.verbose),
		services.WithClock(clock),
	)

	forecast, err := engine.ComputeForecast(cmd.Context(), opts.userID, signals, override)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), forecast)
}
