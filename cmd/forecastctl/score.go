package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/irfndi/wellcast-go/internal/models"
	"github.com/irfndi/wellcast-go/internal/services"
)

type scoreSummary struct {
	Scores []models.SignalScore `json:"scores"`
	Counts map[string]int       `json:"counts"`
}

func newScoreCmd() *cobra.Command {
	var (
		signalsPath string
		outputFmt   string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score each signal against the wellness rubric",
		RunE: func(cmd *cobra.Command, args []string) error {
			signals, err := loadSignals(signalsPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			scores := services.NewDefaultScoringRubric().ScoreSignals(signals)
			switch outputFmt {
			case "json":
				return writeJSON(cmd.OutOrStdout(), summarizeScores(scores))
			case "text":
				return writeScoreTable(cmd, scores)
			default:
				return fmt.Errorf("unknown output format %q (want text or json)", outputFmt)
			}
		},
	}

	cmd.Flags().StringVar(&signalsPath, "signals", "", "Path to a JSON or YAML signal file, or - for stdin (required)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("signals")

	return cmd
}

func summarizeScores(scores []models.SignalScore) scoreSummary {
	counts := map[string]int{
		string(models.SignalCategoryPositive): 0,
		string(models.SignalCategoryNeutral):  0,
		string(models.SignalCategoryNegative): 0,
	}
	for _, s := range scores {
		counts[string(s.Category)]++
	}
	return scoreSummary{Scores: scores, Counts: counts}
}

func writeScoreTable(cmd *cobra.Command, scores []models.SignalScore) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tTYPE\tSCORE\tWEIGHT\tCATEGORY")
	for _, s := range scores {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%s\n",
			s.Signal.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			s.Signal.Type, s.Score, s.Weight, s.Category)
	}
	return tw.Flush()
}
