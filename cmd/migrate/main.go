package main

import (
	"context"
	"log/slog"
	"os"

	"timelog/internal/config"
	"timelog/internal/db"
	"timelog/internal/logging"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		slog.Error("configure logging", slog.Any("error", err))
		os.Exit(1)
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close()

	applied, err := db.RunMigrations(context.Background(), database, cfg.MigrationsDir)
	if err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("migrations applied successfully", slog.Int("count", len(applied)), slog.Any("names", applied))
}
