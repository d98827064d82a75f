package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anismama/backend/internal/catalogue"
	"github.com/anismama/backend/internal/config"
	"github.com/anismama/backend/internal/database"
	apihttp "github.com/anismama/backend/internal/http"
	providerdefaults "github.com/anismama/backend/internal/providers/defaults"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	db, err := database.Open(cfg.SQLitePath)
	if err != nil {
		slog.Error("failed to open sqlite", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.ApplyMigrations(db, cfg.MigrationsPath); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	registry, registryErr := providerdefaults.NewRegistry(cfg.AnimeSamaBaseURL, cfg.YAMLProvidersPath, logger)
	if registry == nil {
		slog.Error("failed to build provider registry", "error", registryErr)
		os.Exit(1)
	}
	if registryErr != nil {
		slog.Warn("provider registry loaded with warnings", "error", registryErr)
	}

	catalogueService := catalogue.NewService(
		registry.Default(),
		time.Duration(cfg.CatalogueTTLMinutes)*time.Minute,
	)

	app := apihttp.NewServer(cfg, db, registry, catalogueService)

	refresherCtx, refresherCancel := context.WithCancel(context.Background())
	refresher := catalogue.NewRefresher(
		catalogueService,
		time.Duration(cfg.CatalogueTTLMinutes)*time.Minute,
		slog.Default(),
	)
	if cfg.RefreshEnabled {
		refresher.Start(refresherCtx)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()

	slog.Info("api started", "port", cfg.Port, "env", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("shutting down server")
	refresherCancel()
	if cfg.RefreshEnabled {
		refresher.StopWait(2 * time.Second)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
