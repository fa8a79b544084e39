package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pressline/internal/api"
	"pressline/internal/config"
	"pressline/internal/logging"
	"pressline/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled baseline recompute",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return ctx.withEngineLogger(logger, func(cfg *config.Config, engine *api.Service) error {
				srv := server.New(cfg, engine, logger)
				if srv != nil {
					if err := srv.Start(runCtx); err != nil {
						return err
					}
					defer srv.Stop()
				}

				errCh := make(chan error, 1)
				go func() {
					if err := engine.ScheduleRecompute(runCtx, cfg.Learning.RecomputeSchedule); err != nil {
						errCh <- err
					}
				}()

				fmt.Fprintln(cmd.OutOrStdout(), "pressline serving; press Ctrl+C to stop")
				select {
				case <-runCtx.Done():
					return nil
				case err := <-errCh:
					return err
				}
			})
		},
	}
}
