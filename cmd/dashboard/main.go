package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"review-analyzer/internal/adapters/dashboard"
	"review-analyzer/internal/app"
	"review-analyzer/internal/infra/config"
	apphttp "review-analyzer/internal/infra/http"
	applog "review-analyzer/internal/infra/log"
	"review-analyzer/internal/infra/metrics"
	"review-analyzer/internal/infra/queue"
	"review-analyzer/internal/usecase/jobs"
)

func main() {
	cfg, err := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)
	if err != nil {
		logger.Fatal().Err(err).Msg("dashboard: не удалось загрузить конфигурацию")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.RequireSharedProgress(); err != nil {
		logger.Fatal().Err(err).Msg("dashboard: статусы задач внешнего воркера недоступны без Redis")
	}
	rdb, err := app.Redis(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("dashboard: нет подключения к Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	jobQueue, closeQueue, err := queue.New(queue.Config{Driver: cfg.Queue.Driver, Name: cfg.Queue.Name, RabbitURL: cfg.Queue.RabbitURL}, rdb)
	if err != nil {
		logger.Fatal().Err(err).Msg("dashboard: не удалось инициализировать очередь")
	}
	defer func() { _ = closeQueue() }()

	artifacts, err := app.Artifacts(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("dashboard: не удалось инициализировать хранилище графиков")
	}
	progressLog, productLock := app.Coordination(rdb)

	// Очередь в памяти обслуживается встроенным воркером.
	if cfg.InProcessQueue() {
		svc, _, closeStore, err := app.Pipeline(ctx, cfg, nil, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("dashboard: не удалось собрать пайплайн")
		}
		defer closeStore()
		worker := jobs.NewWorker(jobQueue, svc, progressLog, productLock, cfg.Pipeline.LockTTL, logger)
		go worker.Run(ctx)
		logger.Info().Msg("dashboard: встроенный воркер запущен")
	}

	server := apphttp.NewServer(logger)
	dashboard.NewHandler(jobs.NewService(jobQueue, progressLog, logger), artifacts, logger).Mount(server.Router)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("dashboard: ошибка остановки HTTP сервера")
		}
	}()

	if err := server.Start(cfg.HTTPAddr); err != nil {
		logger.Fatal().Err(err).Msg("dashboard: HTTP сервер остановлен с ошибкой")
	}
	logger.Info().Msg("dashboard: остановлен")
}
