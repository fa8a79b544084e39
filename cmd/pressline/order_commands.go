package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pressline/internal/api"
	"pressline/internal/config"
	"pressline/internal/orders"
)

func newOrderCommand(ctx *commandContext) *cobra.Command {
	orderCmd := &cobra.Command{
		Use:   "order",
		Short: "Manage customer orders",
	}

	orderCmd.AddCommand(newOrderCreateCommand(ctx))
	orderCmd.AddCommand(newOrderListCommand(ctx))
	orderCmd.AddCommand(newOrderShowCommand(ctx))

	return orderCmd
}

func newOrderCreateCommand(ctx *commandContext) *cobra.Command {
	var due string
	var lines int

	cmd := &cobra.Command{
		Use:   "create <customer>",
		Short: "Register a new order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			customer := strings.TrimSpace(args[0])
			if customer == "" {
				return errors.New("customer name is required")
			}
			deliveryDate, err := parseDate(due)
			if err != nil {
				return err
			}
			if deliveryDate.IsZero() {
				return errors.New("--due is required")
			}
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				ord, err := engine.CreateOrder(cmd.Context(), customer, deliveryDate)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created order %s for %s (due %s)\n", ord.ID, ord.Customer, formatDate(ord.DeliveryDate))
				for i := 0; i < lines; i++ {
					line, err := engine.CreateLine(cmd.Context(), ord.ID, time.Time{}, defaultSequence(cfg))
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "  line %s\n", line.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&due, "due", "", "Delivery date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&lines, "lines", 0, "Number of production lines to open immediately")
	return cmd
}

func newOrderListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				list, err := engine.Orders(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No orders")
					return nil
				}
				colorize := shouldColorize(cmd.OutOrStdout())
				rows := make([][]string, 0, len(list))
				for _, ord := range list {
					tier := engine.ClassifyPriority(ord.DeliveryDate)
					rows = append(rows, []string{
						shortID(ord.ID),
						ord.Customer,
						formatDate(ord.DeliveryDate),
						colorizeTier(tier, colorize),
					})
				}
				table := renderTable(
					[]string{"ID", "Customer", "Due", "Priority"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newOrderShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show an order and its production lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, engine *api.Service) error {
				ord, err := engine.Order(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				lines, err := engine.LinesForOrder(cmd.Context(), ord.ID)
				if err != nil {
					return err
				}
				completed, err := engine.OrderCompleted(cmd.Context(), ord.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Order %s\n", ord.ID)
				fmt.Fprintf(out, "  Customer:  %s\n", ord.Customer)
				fmt.Fprintf(out, "  Due:       %s\n", formatDate(ord.DeliveryDate))
				fmt.Fprintf(out, "  Completed: %s\n", yesNo(completed))
				if len(lines) == 0 {
					fmt.Fprintln(out, "No production lines")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Stage", "Department", "Assignee", "Due", "Dispatched"},
					buildLineRows(lines, ord),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func buildLineRows(lines []*orders.Line, ord *orders.Order) [][]string {
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		assignee := line.AssigneeID
		if assignee == "" {
			assignee = "-"
		}
		rows = append(rows, []string{
			shortID(line.ID),
			lineStageCell(line),
			stageLabel(string(line.Department)),
			assignee,
			formatDate(line.EffectiveDeliveryDate(ord)),
			yesNo(line.Dispatched),
		})
	}
	return rows
}

func parseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", trimmed, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", trimmed)
	}
	return parsed, nil
}
