package main

import (
	"context"
	"errors"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"review-analyzer/internal/app"
	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/config"
	applog "review-analyzer/internal/infra/log"
	"review-analyzer/internal/infra/metrics"
	"review-analyzer/internal/usecase/pipeline"
)

const defaultProductID = 17588414

func main() {
	productFlag := flag.Int64("product", defaultProductID, "идентификатор товара")
	urlFlag := flag.String("url", "", "ссылка на товар вида .../dkp-123456/...")
	seedFlag := flag.Uint64("seed", 0, "зерно выборки отзывов, 0 — случайное")
	flag.Parse()

	cfg, err := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)
	if err != nil {
		logger.Fatal().Err(err).Msg("pipeline: не удалось загрузить конфигурацию")
	}

	productID := domain.ProductID(*productFlag)
	if *urlFlag != "" {
		productID, err = domain.ParseProductID(*urlFlag)
		if err != nil {
			logger.Fatal().Err(err).Str("url", *urlFlag).Msg("pipeline: некорректная ссылка на товар")
		}
	}
	if productID <= 0 {
		logger.Fatal().Int64("product_id", int64(productID)).Msg("pipeline: некорректный идентификатор товара")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rng *rand.Rand
	if *seedFlag != 0 {
		rng = rand.New(rand.NewPCG(*seedFlag, *seedFlag))
	}
	svc, _, closeStore, err := app.Pipeline(ctx, cfg, rng, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("pipeline: не удалось собрать пайплайн")
	}

	logger.Info().Int64("product_id", int64(productID)).Msg("pipeline: запуск")
	summary, err := svc.Run(ctx, productID, pipeline.NewLogProgress(logger))
	closeStore()

	switch {
	case errors.Is(err, domain.ErrNoReviews):
		logger.Warn().Msg("pipeline: у товара нет отзывов, завершаем")
		return
	case err != nil:
		logger.Error().Err(err).Msg("pipeline: прогон завершился ошибкой")
		os.Exit(1)
	}

	event := logger.Info().
		Str("title", summary.Title).
		Int("sampled", summary.Sampled).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration)
	if summary.Report != nil {
		event = event.
			Float64("nps", summary.Report.NPS).
			Int("total", summary.Report.Total).
			Int("satisfied", summary.Report.SatisfactionCount).
			Str("chart", summary.Report.ChartLocation)
	}
	if summary.ReportErr != nil {
		event.Err(summary.ReportErr).Msg("pipeline: отзывы обработаны, отчёт не построен")
		os.Exit(1)
	}
	event.Msg("pipeline: готово")
}
