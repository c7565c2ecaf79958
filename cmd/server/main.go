package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/api"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/bootstrap"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/scheduler"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/config"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	logger.Info("Configuration loaded (store: %s, timezone: %s)", cfg.StoreDriver, cfg.Timezone)

	// 2. Store, Redis, services
	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := bootstrap.Build(startCtx, cfg)
	startCancel()
	if err != nil {
		logger.Fatal("Startup failed: %v", err)
	}
	defer app.Close()

	// 3. Scheduler
	sched, err := scheduler.New(app.Worker, cfg.SyncSchedule, app.Location)
	if err != nil {
		logger.Fatal("Invalid SYNC_SCHEDULE %q: %v", cfg.SyncSchedule, err)
	}
	sched.Start()

	// 4. Router & HTTP Server
	router := api.NewRouter(
		api.RouterConfig{CORSOrigins: cfg.CORSOrigins, RequestTimeout: 2 * time.Minute},
		app.StudentService,
		app.SyncService,
		app.ReminderService,
		sched,
	)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 150 * time.Second, // create/update run a synchronous Codeforces sync
		IdleTimeout:  120 * time.Second,
	}

	// 5. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Could not listen on %s: %v", cfg.APIPort, err)
		}
	}()
	logger.Success("Server started successfully.")

	<-stop // Wait for interrupt signal

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	sched.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
		return
	}

	logger.Success("Server and scheduler stopped gracefully.")
}
