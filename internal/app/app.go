package app

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"review-analyzer/internal/adapters/artifact"
	"review-analyzer/internal/adapters/chart"
	"review-analyzer/internal/adapters/extractor"
	"review-analyzer/internal/adapters/notifier"
	"review-analyzer/internal/adapters/repo"
	"review-analyzer/internal/adapters/source"
	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/config"
	"review-analyzer/internal/infra/db"
	"review-analyzer/internal/infra/lock"
	"review-analyzer/internal/infra/openai"
	"review-analyzer/internal/infra/progress"
	"review-analyzer/internal/usecase/analytics"
	"review-analyzer/internal/usecase/pipeline"
)

// Pipeline собирает пайплайн из конфигурации. closeFn освобождает хранилище.
func Pipeline(ctx context.Context, cfg config.AppConfig, rng *rand.Rand, logger zerolog.Logger) (svc *pipeline.Service, artifacts domain.ArtifactStore, closeFn func(), err error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.RequireStore(); err != nil {
		return nil, nil, nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	store, closeFn, err := Store(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	llm, err := Extractor(ctx, cfg)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	artifacts, err = Artifacts(cfg)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}

	client := source.NewClient(source.Config{
		BaseURL:      cfg.Source.BaseURL,
		UserAgent:    cfg.Source.UserAgent,
		Timeout:      cfg.Source.Timeout,
		TitleTimeout: cfg.Source.TitleTimeout,
		PageInterval: cfg.Source.PageInterval,
	})
	crawler := source.NewCrawler(client, rng, cfg.Source.MaxComments, cfg.Source.SampleSize, logger)
	reports := analytics.NewService(chart.NewRenderer(), artifacts, logger)

	opts := pipeline.Options{ItemDelay: cfg.Pipeline.ItemDelay, Artifacts: artifacts}
	if cfg.NotifyTelegram() {
		tg, err := notifier.NewTelegramFromToken(cfg.Telegram.Token, cfg.Telegram.ChatID, analytics.FormatReport, logger)
		if err != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("telegram notifier: %w", err)
		}
		opts.Notifier = tg
	}
	svc = pipeline.NewService(client, crawler, llm, store, reports, opts, logger)
	return svc, artifacts, closeFn, nil
}

// Store открывает хранилище отзывов по STORE_DRIVER.
func Store(cfg config.AppConfig) (domain.ReviewRepo, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := db.Connect(cfg.Store.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return repo.NewPostgres(pool), pool.Close, nil
	default:
		conn, err := db.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlite := repo.NewSQLite(conn)
		return sqlite, func() { _ = sqlite.Close() }, nil
	}
}

// Extractor создаёт клиента LLM по LLM_PROVIDER.
func Extractor(ctx context.Context, cfg config.AppConfig) (domain.SentimentExtractor, error) {
	if cfg.LLM.Provider == "gemini" {
		gemini, err := extractor.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return gemini, nil
	}
	client := openai.NewClient(openai.Config{APIKey: cfg.LLM.APIKey, BaseURL: cfg.LLM.BaseURL, Timeout: cfg.LLM.Timeout})
	return extractor.NewOpenAI(client, cfg.LLM.Model), nil
}

// Artifacts выбирает S3, если он настроен, иначе локальный каталог.
func Artifacts(cfg config.AppConfig) (domain.ArtifactStore, error) {
	if !cfg.UseS3() {
		return artifact.NewFileStore(cfg.Output.Dir), nil
	}
	s3, err := artifact.NewS3Store(artifact.S3Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Bucket:    cfg.S3.Bucket,
		UseSSL:    cfg.S3.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return s3, nil
}

// Redis возвращает клиента Redis или nil, если REDIS_ADDR не задан.
func Redis(ctx context.Context, cfg config.AppConfig) (*redis.Client, error) {
	if cfg.Queue.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Queue.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Coordination возвращает журнал прогресса и блокировку товаров: общие через Redis
// или локальные для одного процесса.
func Coordination(rdb *redis.Client) (domain.ProgressLog, domain.ProductLock) {
	if rdb == nil {
		return progress.NewMemoryLog(), lock.NewLocal()
	}
	return progress.NewRedisLog(rdb, "analysis", progress.DefaultTTL), lock.NewRedis(rdb, "lock:product")
}
