package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"review-analyzer/internal/app"
	"review-analyzer/internal/infra/config"
	applog "review-analyzer/internal/infra/log"
	"review-analyzer/internal/infra/metrics"
	"review-analyzer/internal/infra/queue"
	"review-analyzer/internal/usecase/jobs"
)

func main() {
	cfg, err := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: не удалось загрузить конфигурацию")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	if cfg.InProcessQueue() {
		logger.Fatal().Msg("worker: очередь в памяти недоступна отдельному процессу, укажите QUEUE_DRIVER=redis или rabbitmq")
	}
	if err := cfg.RequireSharedProgress(); err != nil {
		logger.Fatal().Err(err).Msg("worker: не указан адрес Redis (REDIS_ADDR) для журнала прогресса")
	}
	rdb, err := app.Redis(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: нет подключения к Redis")
	}
	defer rdb.Close()

	jobQueue, closeQueue, err := queue.New(queue.Config{Driver: cfg.Queue.Driver, Name: cfg.Queue.Name, RabbitURL: cfg.Queue.RabbitURL}, rdb)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: не удалось инициализировать очередь")
	}
	defer func() { _ = closeQueue() }()

	svc, _, closeStore, err := app.Pipeline(ctx, cfg, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: не удалось собрать пайплайн")
	}
	defer closeStore()

	progressLog, productLock := app.Coordination(rdb)
	worker := jobs.NewWorker(jobQueue, svc, progressLog, productLock, cfg.Pipeline.LockTTL, logger)

	logger.Info().Str("queue", cfg.Queue.Driver).Msg("worker: запуск обработки очереди")
	worker.Run(ctx)
	logger.Info().Msg("worker: остановлен")
}
