package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"timelog/internal/app"
	"timelog/internal/config"
	"timelog/internal/handler"
	"timelog/internal/logging"
	"timelog/internal/router"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		slog.Error("configure logging", slog.Any("error", err))
		os.Exit(1)
	}
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("start", slog.Any("error", err))
		os.Exit(1)
	}
	defer application.Close()

	if cfg.ReaperInterval > 0 {
		logger.Info("reaper enabled", slog.Duration("interval", cfg.ReaperInterval))
		go application.Sweeper(cfg.ReaperInterval, logger).Run(ctx)
	}

	engine := router.New(
		application.Auth,
		handler.NewAuthHandler(application.Auth),
		handler.NewActivityHandler(application.Activities),
		handler.NewSessionHandler(application.Sessions),
		logger,
		cfg.CORSOrigins,
	)
	if !application.Auth.Enabled() {
		logger.Warn("ACCESS_PASSWORD_HASH is empty, API is unauthenticated")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("run server", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown server", slog.Any("error", err))
		}
		logger.Info("server stopped")
	}
}
