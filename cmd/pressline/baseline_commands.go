package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"pressline/internal/api"
	"pressline/internal/baseline"
	"pressline/internal/config"
	"pressline/internal/orders"
)

func newBaselineCommand(ctx *commandContext) *cobra.Command {
	baselineCmd := &cobra.Command{
		Use:   "baseline",
		Short: "Inspect and refresh learned duration baselines",
	}

	baselineCmd.AddCommand(newBaselineShowCommand(ctx))
	baselineCmd.AddCommand(newBaselineRecomputeCommand(ctx))

	return baselineCmd
}

func newBaselineShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				b, err := engine.Baseline(cmd.Context())
				if err != nil {
					return err
				}
				printBaseline(cmd, b)
				return nil
			})
		},
	}
}

func newBaselineRecomputeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Recompute baselines from completed lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				b, err := engine.RecomputeBaseline(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Baseline recomputed")
				printBaseline(cmd, b)
				return nil
			})
		},
	}
}

func printBaseline(cmd *cobra.Command, b baseline.Baseline) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Confidence: %.0f%%\n", b.Confidence()*100)
	if !b.UpdatedAt.IsZero() {
		fmt.Fprintf(out, "Updated:    %s\n", b.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}

	stages := make([]orders.Stage, 0, len(b.Stages))
	for stage := range b.Stages {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].Ordinal() < stages[j].Ordinal() })
	rows := make([][]string, 0, len(stages))
	for _, stage := range stages {
		stats := b.Stages[stage]
		rows = append(rows, []string{
			stageLabel(string(stage)),
			formatHours(stats.MeanHours),
			formatHours(stats.P95Hours),
			fmt.Sprintf("%.0f%%", stats.DelayRate*100),
			fmt.Sprintf("%d", stats.SampleCount),
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Stage", "Mean", "P95", "Delay Rate", "Samples"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
		))
	}

	if len(b.DelayCauses) > 0 {
		causes := make([]string, 0, len(b.DelayCauses))
		for cause := range b.DelayCauses {
			causes = append(causes, cause)
		}
		sort.Strings(causes)
		causeRows := make([][]string, 0, len(causes))
		for _, cause := range causes {
			causeRows = append(causeRows, []string{stageLabel(cause), fmt.Sprintf("%d", b.DelayCauses[cause])})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Delay Cause", "Count"},
			causeRows,
			[]columnAlignment{alignLeft, alignRight},
		))
	}
}
