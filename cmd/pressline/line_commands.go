package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pressline/internal/api"
	"pressline/internal/config"
	"pressline/internal/orders"
)

func newLineCommand(ctx *commandContext) *cobra.Command {
	lineCmd := &cobra.Command{
		Use:   "line",
		Short: "Track and move production lines",
	}

	lineCmd.AddCommand(newLineCreateCommand(ctx))
	lineCmd.AddCommand(newLineListCommand(ctx))
	lineCmd.AddCommand(newLineShowCommand(ctx))
	lineCmd.AddCommand(newLineAdvanceCommand(ctx))
	lineCmd.AddCommand(newLineJumpCommand(ctx))
	lineCmd.AddCommand(newLineCompleteCommand(ctx))
	lineCmd.AddCommand(newLineConfirmCommand(ctx))
	lineCmd.AddCommand(newLineAssignCommand(ctx))
	lineCmd.AddCommand(newLineDelayCommand(ctx))

	return lineCmd
}

func newLineCreateCommand(ctx *commandContext) *cobra.Command {
	var due string
	var substages []string

	cmd := &cobra.Command{
		Use:   "create <order-id>",
		Short: "Open a production line under an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deliveryDate, err := parseDate(due)
			if err != nil {
				return err
			}
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				sequence := defaultSequence(cfg)
				if len(substages) > 0 {
					sequence = sequence[:0]
					for _, name := range substages {
						sequence = append(sequence, orders.Substage(strings.ToLower(strings.TrimSpace(name))))
					}
				}
				line, err := engine.CreateLine(cmd.Context(), args[0], deliveryDate, sequence)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created line %s (stage %s)\n", line.ID, line.CurrentStage)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&due, "due", "", "Line delivery date overriding the order (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&substages, "substage", nil, "Manufacturing substep sequence for this line")
	return cmd
}

func newLineListCommand(ctx *commandContext) *cobra.Command {
	var stageFilters []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List production lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				var stages []orders.Stage
				for _, value := range stageFilters {
					stage, ok := orders.ParseStage(strings.TrimSpace(value))
					if !ok {
						return fmt.Errorf("unknown stage %q", value)
					}
					stages = append(stages, stage)
				}
				lines, err := engine.Lines(cmd.Context(), stages...)
				if err != nil {
					return err
				}
				if len(lines) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No production lines")
					return nil
				}
				rows := make([][]string, 0, len(lines))
				for _, line := range lines {
					assignee := line.AssigneeID
					if assignee == "" {
						assignee = "-"
					}
					rows = append(rows, []string{
						shortID(line.ID),
						shortID(line.OrderID),
						lineStageCell(line),
						stageLabel(string(line.Department)),
						assignee,
						yesNo(line.Dispatched),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Order", "Stage", "Department", "Assignee", "Dispatched"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&stageFilters, "stage", nil, "Only show lines in these stages")
	return cmd
}

func newLineShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <line-id>",
		Short: "Show line details, priority, health, and delay risk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				line, report, err := engine.Score(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				tier, days, err := engine.LinePriority(cmd.Context(), line.ID)
				if err != nil {
					return err
				}
				probability, err := engine.PredictDelay(cmd.Context(), line.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintf(out, "Line %s (order %s)\n", line.ID, line.OrderID)
				fmt.Fprintf(out, "  Stage:      %s\n", lineStageCell(line))
				fmt.Fprintf(out, "  Department: %s\n", stageLabel(string(line.Department)))
				if line.AssigneeID != "" {
					fmt.Fprintf(out, "  Assignee:   %s\n", line.AssigneeID)
				}
				fmt.Fprintf(out, "  Priority:   %s (%d days left)\n", colorizeTier(tier, colorize), days)
				fmt.Fprintf(out, "  Health:     %d/%d %s\n", report.Score, report.MaxScore, colorizeHealth(report.Status, colorize))
				fmt.Fprintf(out, "  Delay risk: %.0f%%\n", probability*100)
				if line.Dispatched {
					fmt.Fprintf(out, "  Dispatched: yes (tracking %s)\n", line.TrackingCode)
				}

				if len(report.Factors) > 0 {
					rows := make([][]string, 0, len(report.Factors))
					for _, factor := range report.Factors {
						rows = append(rows, []string{
							stageLabel(factor.Name),
							fmt.Sprintf("%d/%d", factor.Points, factor.Budget),
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Factor", "Points"},
						rows,
						[]columnAlignment{alignLeft, alignRight},
					))
				}

				if len(line.StageDurations) > 0 {
					rows := make([][]string, 0, len(line.StageDurations))
					for _, stage := range orders.AllStages() {
						if hours, ok := line.StageDurations[stage]; ok {
							rows = append(rows, []string{stageLabel(string(stage)), formatHours(hours)})
						}
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Stage", "Time Spent"},
						rows,
						[]columnAlignment{alignLeft, alignRight},
					))
				}

				for _, reason := range line.DelayReasons {
					fmt.Fprintf(out, "  Delay: %s %s (%s)\n", reason.Category, reason.Note, reason.LoggedAt.Local().Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
}

func newLineAdvanceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <line-id>",
		Short: "Advance a line to its next stage or substep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				line, err := engine.Advance(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Line %s is now at %s\n", shortID(line.ID), lineStageCell(line))
				return nil
			})
		},
	}
}

func newLineJumpCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "jump <line-id> <substage>",
		Short: "Move a manufacturing line to a specific substep",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				target := orders.Substage(strings.ToLower(strings.TrimSpace(args[1])))
				line, err := engine.JumpToSubstage(cmd.Context(), args[0], target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Line %s is now at %s\n", shortID(line.ID), lineStageCell(line))
				return nil
			})
		},
	}
}

func newLineCompleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <line-id>",
		Short: "Complete the current manufacturing substep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				result, err := engine.CompleteSubstage(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Line %s is now at %s\n", shortID(result.Line.ID), lineStageCell(result.Line))
				if result.ConfirmationRequired {
					fmt.Fprintln(out, "All substeps are done; confirm dispatch with `pressline line confirm`")
				}
				return nil
			})
		},
	}
}

func newLineConfirmCommand(ctx *commandContext) *cobra.Command {
	var tracking string

	cmd := &cobra.Command{
		Use:   "confirm <line-id>",
		Short: "Confirm dispatch with a tracking code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(tracking) == "" {
				return errors.New("--tracking is required")
			}
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				line, err := engine.ConfirmDispatch(cmd.Context(), args[0], tracking)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Line %s dispatched (tracking %s)\n", shortID(line.ID), line.TrackingCode)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&tracking, "tracking", "", "Carrier tracking code")
	return cmd
}

func newLineAssignCommand(ctx *commandContext) *cobra.Command {
	var department string
	var assignee string

	cmd := &cobra.Command{
		Use:   "assign <line-id>",
		Short: "Assign a department or individual to a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(department) == "" && strings.TrimSpace(assignee) == "" {
				return errors.New("provide --department and/or --assignee")
			}
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				var line *orders.Line
				var err error
				if dept := strings.TrimSpace(department); dept != "" {
					line, err = engine.AssignDepartment(cmd.Context(), args[0], orders.Department(strings.ToLower(dept)))
					if err != nil {
						return err
					}
				}
				if user := strings.TrimSpace(assignee); user != "" {
					line, err = engine.AssignUser(cmd.Context(), args[0], user)
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Line %s assigned to %s", shortID(line.ID), stageLabel(string(line.Department)))
				if line.AssigneeID != "" {
					fmt.Fprintf(cmd.OutOrStdout(), " (%s)", line.AssigneeID)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&department, "department", "", "Responsible department")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Responsible user id")
	return cmd
}

func newLineDelayCommand(ctx *commandContext) *cobra.Command {
	var category string
	var note string

	cmd := &cobra.Command{
		Use:   "delay <line-id>",
		Short: "Record a delay reason on a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(category) == "" {
				return errors.New("--category is required")
			}
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				line, err := engine.AddDelayReason(cmd.Context(), args[0], category, note)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded delay on line %s (%d reasons logged)\n", shortID(line.ID), len(line.DelayReasons))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Delay category, e.g. material_shortage")
	cmd.Flags().StringVar(&note, "note", "", "Free-form note")
	return cmd
}
