package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	h "github.com/veranemoloko/novel-downloader/internal/api/http"
	cfgpkg "github.com/veranemoloko/novel-downloader/internal/config"
	repo "github.com/veranemoloko/novel-downloader/internal/repository"
	svc "github.com/veranemoloko/novel-downloader/internal/service"
	"github.com/veranemoloko/novel-downloader/internal/source/biqu"
	"github.com/veranemoloko/novel-downloader/internal/storage"
	"github.com/veranemoloko/novel-downloader/internal/worker"
)

func main() {

	cfg, err := cfgpkg.Load()
	if err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			slog.Error("configuration file not found", "error", err)
		} else {
			slog.Error("failed to load configuration", "error", err)
		}
		os.Exit(1)
	}

	logger := cfgpkg.SetupLogger(cfg)
	slog.Info("configuration loaded successfully", "env", cfg.Environment, "base_url", cfg.BaseURL)

	jobStorage, err := repo.NewJobStorage(cfg.StateFile)
	if err != nil {
		slog.Error("failed to initialize job repository", "error", err)
		os.Exit(1)
	}

	client, err := biqu.NewClient(cfg.BaseURL, cfg.FetchTimeout, logger)
	if err != nil {
		slog.Error("failed to create source client", "error", err)
		os.Exit(1)
	}
	parser, err := biqu.NewParser(cfg.BaseURL)
	if err != nil {
		slog.Error("failed to create page parser", "error", err)
		os.Exit(1)
	}

	orch := svc.NewOrchestrator(client, parser, storage.NewFileStorage(cfg.DownloadDir), svc.Options{
		MaxWorkers:   cfg.MaxWorkers,
		Retry:        worker.RetryPolicy{MaxAttempts: cfg.MaxAttempts, Delay: cfg.RetryDelay},
		FetchTimeout: cfg.FetchTimeout,
	}, logger)
	jobService := svc.NewJobService(jobStorage, orch, client, logger)

	if err := jobService.RecoverInterrupted(context.Background()); err != nil {
		slog.Error("failed to recover interrupted jobs", "error", err)
	}

	router := h.NewRouter(jobService, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  cfg.HTTPTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	} else {
		slog.Info("server stopped gracefully")
	}

	if err := jobService.Shutdown(shutdownCtx); err != nil {
		slog.Error("job service shutdown failed", "error", err)
	}
}
