package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/metrics"
)

type reportBuilder interface {
	BuildReport(ctx context.Context, productID domain.ProductID, title string, rows []domain.ReviewRow) (domain.Report, error)
}

// Options задаёт необязательные параметры прогона.
type Options struct {
	// ItemDelay — минимальный интервал между обработкой соседних отзывов.
	ItemDelay time.Duration
	// Notifier получает готовый отчёт. Может быть nil.
	Notifier domain.Notifier
	// Artifacts нужен уведомителю, чтобы приложить график.
	Artifacts domain.ArtifactStore
}

// Service выполняет прогон: выгрузка, анализ, сохранение, агрегация.
type Service struct {
	info      domain.ProductInfo
	fetcher   domain.ReviewFetcher
	extractor domain.SentimentExtractor
	repo      domain.ReviewRepo
	reports   reportBuilder
	opts      Options
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService создаёт оркестратор пайплайна.
func NewService(info domain.ProductInfo, fetcher domain.ReviewFetcher, extractor domain.SentimentExtractor, repo domain.ReviewRepo, reports reportBuilder, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		info:      info,
		fetcher:   fetcher,
		extractor: extractor,
		repo:      repo,
		reports:   reports,
		opts:      opts,
		logger:    logger.With().Str("component", "pipeline").Logger(),
		now:       time.Now,
	}
}

// Run обрабатывает один товар. Ошибки отдельных отзывов не прерывают прогон
// и собираются в RunSummary. Возвращает ошибку только для фатальных сбоев.
func (s *Service) Run(ctx context.Context, productID domain.ProductID, progress domain.Progress) (summary domain.RunSummary, err error) {
	if progress == nil {
		progress = NopProgress{}
	}
	summary = domain.RunSummary{ProductID: productID, StartedAt: s.now()}
	log := s.logger.With().Int64("product_id", int64(productID)).Logger()
	defer func() {
		summary.Duration = s.now().Sub(summary.StartedAt)
		metrics.PipelineRunSeconds.Observe(summary.Duration.Seconds())
	}()

	progress.Step(fmt.Sprintf("Extracting metadata for Product ID: %d", productID))
	summary.Title = s.info.ProductTitle(ctx, productID)
	progress.Step("Product Name: " + summary.Title)

	progress.Step("Connecting to review API...")
	comments, err := s.fetcher.FetchComments(ctx, productID)
	if err != nil {
		progress.Step("ERROR: " + shorten(err.Error()))
		log.Error().Err(err).Msg("pipeline: не удалось выгрузить отзывы")
		return summary, err
	}
	summary.Sampled = len(comments)
	if len(comments) == 0 {
		progress.Step("ERROR: No reviews found.")
		log.Warn().Msg("pipeline: у товара нет отзывов")
		return summary, domain.ErrNoReviews
	}
	progress.Step(fmt.Sprintf("Sampled %d reviews. Starting AI pipeline...", len(comments)))

	if err := s.processItems(ctx, productID, comments, progress, &summary); err != nil {
		log.Warn().Err(err).Int("done", len(summary.Items)).Msg("pipeline: прогон прерван")
		return summary, err
	}
	log.Info().Int("succeeded", summary.Succeeded).Int("failed", summary.Failed).Msg("pipeline: анализ завершён")

	progress.Step("AI Processing complete. Generating charts...")
	s.buildReport(ctx, productID, &summary, log)
	if summary.ReportErr != nil {
		progress.Step("ERROR: report failed: " + shorten(summary.ReportErr.Error()))
		return summary, nil
	}
	s.notify(ctx, summary.Report, log)
	progress.Step("Pipeline execution finished successfully!")
	return summary, nil
}

func (s *Service) processItems(ctx context.Context, productID domain.ProductID, comments []domain.RawComment, progress domain.Progress, summary *domain.RunSummary) error {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.opts.ItemDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.opts.ItemDelay), 1)
	}
	total := len(comments)
	summary.Items = make([]domain.ItemResult, 0, total)

	for i, comment := range comments {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		progress.Step(fmt.Sprintf("Analyzing review [%d/%d] via LLM...", i+1, total))
		item := s.processItem(ctx, productID, i, comment)
		metrics.ObserveItem(item.Err)
		summary.Items = append(summary.Items, item)
		if item.OK() {
			summary.Succeeded++
		} else {
			summary.Failed++
			progress.Step(fmt.Sprintf("Error on review %d: %s", i+1, shorten(item.Err.Error())))
			s.logger.Debug().Err(item.Err).Int("index", i).Msg("pipeline: отзыв пропущен")
		}
		progress.Advance(i+1, total)
	}
	return nil
}

func (s *Service) processItem(ctx context.Context, productID domain.ProductID, index int, comment domain.RawComment) domain.ItemResult {
	item := domain.ItemResult{Index: index, Comment: comment}
	record, err := s.extractor.Extract(ctx, comment)
	if err != nil {
		item.Err = err
		return item
	}
	row, err := s.repo.Insert(ctx, productID, comment, record)
	if err != nil {
		item.Err = err
		return item
	}
	item.Row = &row
	return item
}

func (s *Service) buildReport(ctx context.Context, productID domain.ProductID, summary *domain.RunSummary, log zerolog.Logger) {
	rows, err := s.repo.GetByProduct(ctx, productID)
	if err != nil {
		summary.ReportErr = err
		log.Error().Err(err).Msg("pipeline: не удалось прочитать сохранённые отзывы")
		return
	}
	report, err := s.reports.BuildReport(ctx, productID, summary.Title, rows)
	summary.Report = &report
	if err != nil {
		summary.ReportErr = err
		log.Error().Err(err).Msg("pipeline: не удалось построить отчёт")
	}
}

func (s *Service) notify(ctx context.Context, report *domain.Report, log zerolog.Logger) {
	if s.opts.Notifier == nil || report == nil || report.Total == 0 {
		return
	}
	var chart []byte
	if report.ChartName != "" && s.opts.Artifacts != nil {
		rc, err := s.opts.Artifacts.Open(ctx, report.ChartName)
		if err == nil {
			chart, err = io.ReadAll(rc)
			_ = rc.Close()
		}
		if err != nil {
			log.Warn().Err(err).Msg("pipeline: график недоступен для уведомления")
		}
	}
	if err := s.opts.Notifier.NotifyReport(ctx, *report, chart); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("pipeline: не удалось отправить уведомление")
	}
}

func shorten(s string) string {
	const limit = 120
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
