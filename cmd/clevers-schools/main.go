// Package main Clevers Schools API
//
// @title           Clevers Schools API
// @version         1.0
// @description     API выдачи учебных материалов: сессии, премиум-доступ, каталог и скачивание файлов Google Drive

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	cleversschools "github.com/magabrotheeeer/clevers-schools/internal/app/clevers-schools"
	"github.com/magabrotheeeer/clevers-schools/internal/config"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)

	logger.Info("starting clevers-schools", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cleversschools.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("clevers-schools stopped gracefully")
}
