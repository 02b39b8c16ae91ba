package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/api"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/scheduler"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled backups and serve status over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger.Info("Starting tastesync")

			store, closeStore, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			ctrl, err := newBackupController(cfg, store, logger)
			if err != nil {
				return err
			}

			sched := scheduler.NewScheduler(ctrl, cfg.Schedule, logger)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer sched.Stop()

			if runNow {
				sched.Trigger()
			}

			server := api.NewServer(cfg.ServerPort, sched, store, logger)

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			serverErrChan := make(chan error, 1)
			go func() {
				if err := server.Start(runCtx); err != nil {
					serverErrChan <- err
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			logger.Info("tastesync is running")

			select {
			case err := <-serverErrChan:
				return fmt.Errorf("server error: %w", err)
			case sig := <-sigChan:
				logger.WithField("signal", sig).Info("Received shutdown signal")
				cancel()
				if err := server.Shutdown(context.Background()); err != nil {
					logger.WithError(err).Error("Error during server shutdown")
				}
			}

			logger.Info("tastesync stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "Start a backup immediately instead of waiting for the schedule")
	return cmd
}
