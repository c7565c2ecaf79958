package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/config"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

var DB *sqlx.DB

func Connect(ctx context.Context) error {
	db, err := sqlx.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("connecting to database: %w", err)
	}

	DB = db
	logger.Success("Connected to PostgreSQL database")
	return nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, DB.DB, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, DB.DB)
	if err == nil {
		logger.Info("Database schema at version %d", version)
	}
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		logger.Info("Database connection closed.")
	}
}
