package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/service"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/worker"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common/security"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/repository"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/codeforces"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/config"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/database"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/kvstore"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/mail"
)

// App holds the wired services shared by the server and the one-shot sync.
type App struct {
	Config   *config.Config
	Location *time.Location

	StudentRepo  repository.StudentRepository
	ActivityRepo repository.ActivityRepository

	SyncService     *service.SyncService
	StudentService  *service.StudentService
	ReminderService *service.ReminderService
	Worker          *worker.SyncWorker

	closers []func()
}

// Build connects the configured store and Redis and wires every service.
// Call Close when done.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Location: loc}

	// 1. Store
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		if err := database.Connect(ctx); err != nil {
			return nil, err
		}
		app.closers = append(app.closers, database.Close)
		if err := database.Migrate(ctx); err != nil {
			app.Close()
			return nil, err
		}
		app.StudentRepo = repository.NewPgStudentRepository(database.DB)
		app.ActivityRepo = repository.NewPgActivityRepository(database.DB)
	case config.StoreDriverMemory:
		logger.Warn("Using the in-memory store; data is lost on restart")
		mem := repository.NewMemoryStore()
		app.StudentRepo, app.ActivityRepo = mem, mem
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	// 2. Batch lock and run log
	var (
		locker worker.Locker
		runs   worker.RunLog
	)
	if cfg.RedisEnabled {
		if err := kvstore.ConnectRedis(ctx); err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, kvstore.CloseRedis)
		locker = worker.NewRedisLocker(kvstore.RDB, cfg.SyncLockKey, cfg.SyncLockTTL)
		runs = worker.NewRedisRunLog(kvstore.RDB, cfg.SyncRunLogKey, cfg.SyncRunLogSize)
	} else {
		locker = &worker.LocalLocker{}
		runs = worker.NewMemoryRunLog(cfg.SyncRunLogSize)
	}

	// 3. Outbound clients
	cf := codeforces.NewClient(cfg.CodeforcesBaseURL, cfg.CodeforcesTimeout)
	sender := mail.NewSenderFromConfig(cfg)
	if sender == nil {
		logger.Warn("Email transport not configured; reminders are disabled")
	}
	if cfg.UsesDefaultJWTSecret() {
		logger.Warn("JWT_SECRET is unset; unsubscribe links are signed with the default secret")
	}
	tokens := security.NewTokenIssuer(cfg.JWTKey, cfg.UnsubscribeTokenTTL)

	// 4. Services
	app.SyncService = service.NewSyncService(cf, app.StudentRepo, app.ActivityRepo, service.SyncConfig{
		Location:        loc,
		SubmissionCount: cfg.CodeforcesSubmissionCount,
		Concurrency:     cfg.SyncConcurrency,
	})
	app.StudentService = service.NewStudentService(app.StudentRepo, app.ActivityRepo, app.SyncService, loc)
	app.ReminderService = service.NewReminderService(app.StudentRepo, sender, tokens, service.ReminderConfig{
		AppName:             cfg.AppName,
		PublicBaseURL:       cfg.PublicBaseURL,
		InactivityThreshold: cfg.InactivityThreshold,
		Cooldown:            cfg.ReminderCooldown,
		MailDriver:          cfg.MailDriver,
		MailFrom:            cfg.MailFrom,
	})
	app.Worker = worker.NewSyncWorker(app.SyncService, app.ReminderService, locker, runs)

	return app, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
