package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pressline/internal/api"
	"pressline/internal/config"
	"pressline/internal/orders"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show workload summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				summary, err := engine.Summary(cmd.Context())
				if err != nil {
					return err
				}
				stats, err := engine.Stats(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if summary.Total == 0 {
					fmt.Fprintln(out, "No production lines")
					return nil
				}
				fmt.Fprintf(out, "Lines: %d total, %d open, %d in manufacturing, %d awaiting dispatch, %d done\n",
					summary.Total, summary.Open, summary.Manufacturing, summary.AwaitingDispatch, summary.Done)

				rows := make([][]string, 0, len(stats))
				for _, stage := range orders.AllStages() {
					count, ok := stats[stage]
					if !ok || count == 0 {
						continue
					}
					rows = append(rows, []string{stageLabel(string(stage)), fmt.Sprintf("%d", count)})
				}
				if len(rows) > 0 {
					fmt.Fprintln(out, renderTable(
						[]string{"Stage", "Lines"},
						rows,
						[]columnAlignment{alignLeft, alignRight},
					))
				}
				return nil
			})
		},
	}
}
