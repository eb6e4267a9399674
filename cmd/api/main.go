package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"participium/api/internal/cache"
	"participium/api/internal/config"
	"participium/api/internal/database"
	"participium/api/internal/email"
	"participium/api/internal/handlers"
	"participium/api/internal/jobs"
	"participium/api/internal/log"
	"participium/api/internal/repository"
	"participium/api/internal/server"
	"participium/api/internal/service"
	"participium/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := log.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("object store init failed")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Fatal().Err(err).Msg("bucket provisioning failed")
	}

	mailer, err := email.NewService(cfg.Email, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("email provider init failed")
	}

	users := repository.NewUserRepository(pool)
	sessions := repository.NewSessionRepository(pool)
	reports := repository.NewReportRepository(pool)
	notifications := repository.NewNotificationRepository(pool)
	codes := cache.NewCodeStore(redisClient)

	uploads := service.NewUploadService(objectStore, cfg, logger)
	authService := service.NewAuthService(users, sessions, codes, mailer, cfg.Security, logger)
	reportService := service.NewReportService(reports, notifications, uploads, mailer, logger)

	handlerSet := handlers.New(
		cfg, logger,
		authService, reportService, uploads,
		users, sessions, notifications,
		pool, redisClient,
	)

	scheduler := jobs.NewScheduler(users, sessions, notifications, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("scheduler start failed")
	}

	srv := server.New(cfg, logger, handlerSet)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
