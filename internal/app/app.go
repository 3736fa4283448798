// Package app wires the database, repositories and services shared by the
// server and the operator CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"timelog/internal/config"
	"timelog/internal/db"
	"timelog/internal/recovery"
	"timelog/internal/repository"
	"timelog/internal/service"
	"timelog/internal/validate"
)

type App struct {
	DB         *sql.DB
	Sessions   *service.SessionService
	Activities *service.ActivityService
	Auth       *service.AuthService
	Engine     *recovery.Engine
}

// Open opens the database at cfg.DBPath, applies pending migrations and
// builds the services on top of it.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	applied, err := db.RunMigrations(ctx, database, cfg.MigrationsDir)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	for _, name := range applied {
		logger.Info("applied migration", slog.String("name", name))
	}

	engine := recovery.NewEngine(cfg.Recovery)
	activityRepo := repository.NewActivityRepository(database)
	sessions := service.NewSessionService(
		repository.NewSessionRepository(database),
		activityRepo,
		engine,
		validate.NewManualEntryValidator(cfg.ManualBounds()),
		logger,
	)

	return &App{
		DB:         database,
		Sessions:   sessions,
		Activities: service.NewActivityService(activityRepo, logger),
		Auth:       service.NewAuthService(cfg.AccessPasswordHash, cfg.JWTSecret, cfg.TokenTTL),
		Engine:     engine,
	}, nil
}

// Sweeper returns the background reaper for the open session. It does
// nothing when interval is not positive.
func (a *App) Sweeper(interval time.Duration, logger *slog.Logger) *recovery.Sweeper {
	return &recovery.Sweeper{
		Reaper:   a.Sessions,
		Interval: interval,
		Logger:   logger,
	}
}

func (a *App) Close() error {
	return a.DB.Close()
}
