package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/bootstrap"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/worker"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/config"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"
)

// sync runs one batch (sync every student, then reminders) and exits.
// Intended for an external cron; exit code 1 on failure or a held lock.
func main() {
	config.Load()
	cfg := config.AppConfig
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, 30*time.Second)
	app, err := bootstrap.Build(startCtx, cfg)
	startCancel()
	if err != nil {
		logger.Fatal("Startup failed: %v", err)
	}

	run, err := app.Worker.RunOnce(ctx, worker.TriggerCLI)
	app.Close()
	if err != nil {
		logger.Error("Sync run did not complete: %v", err)
		os.Exit(1)
	}

	logger.Info("Synced %d/%d students (%d failed); reminders: %d sent, %d errors, %d skipped",
		run.Sync.Succeeded, run.Sync.Total, run.Sync.Failed,
		run.Reminders.Sent, run.Reminders.Errors, run.Reminders.Skipped)
	if ctx.Err() != nil {
		logger.Warn("Interrupted before the run finished")
		os.Exit(1)
	}
	if run.Error != "" {
		os.Exit(1)
	}
}
