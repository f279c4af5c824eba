package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/metrics"
)

const (
	promoterThreshold  = 9
	detractorThreshold = 6
)

// CalculateNPS возвращает Net Promoter Score, округлённый до сотых.
// Для пустого набора возвращает 0.
func CalculateNPS(rows []domain.ReviewRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	var promoters, detractors int
	for _, row := range rows {
		switch {
		case row.EstimatedScore >= promoterThreshold:
			promoters++
		case row.EstimatedScore <= detractorThreshold:
			detractors++
		}
	}
	total := float64(len(rows))
	nps := float64(promoters)/total*100 - float64(detractors)/total*100
	// Половина округляется к чётной цифре по точному двоичному значению.
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(nps, 'f', 2, 64), 64)
	return rounded
}

// SatisfactionCount возвращает число довольных покупателей.
func SatisfactionCount(rows []domain.ReviewRow) int {
	count := 0
	for _, row := range rows {
		if row.IsSatisfied {
			count++
		}
	}
	return count
}

// Histogram раскладывает оценки по корзинам 1..10. Оценки вне диапазона пропускаются.
func Histogram(rows []domain.ReviewRow) [domain.MaxScore]int {
	var hist [domain.MaxScore]int
	for _, row := range rows {
		if row.EstimatedScore < domain.MinScore || row.EstimatedScore > domain.MaxScore {
			continue
		}
		hist[row.EstimatedScore-1]++
	}
	return hist
}

// Service строит отчёт и сохраняет график.
type Service struct {
	renderer domain.ChartRenderer
	store    domain.ArtifactStore
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService создаёт сервис аналитики.
func NewService(renderer domain.ChartRenderer, store domain.ArtifactStore, logger zerolog.Logger) *Service {
	return &Service{
		renderer: renderer,
		store:    store,
		logger:   logger.With().Str("component", "analytics").Logger(),
		now:      time.Now,
	}
}

// BuildReport агрегирует строки товара. Для пустого набора график не строится.
// При ошибке рендера или сохранения возвращает посчитанный отчёт вместе с ошибкой.
func (s *Service) BuildReport(ctx context.Context, productID domain.ProductID, title string, rows []domain.ReviewRow) (domain.Report, error) {
	report := domain.Report{
		ProductID:         productID,
		Title:             title,
		Total:             len(rows),
		NPS:               CalculateNPS(rows),
		SatisfactionCount: SatisfactionCount(rows),
		Histogram:         Histogram(rows),
		GeneratedAt:       s.now().UTC(),
	}
	if len(rows) == 0 {
		s.logger.Warn().Int64("product_id", int64(productID)).Msg("analytics: нет данных, график не строится")
		return report, nil
	}
	metrics.ObserveReportNPS(report.NPS)

	png, err := s.renderer.Render(report)
	if err != nil {
		return report, fmt.Errorf("render chart: %w", err)
	}
	name := domain.ChartName(productID)
	location, err := s.store.Save(ctx, name, png)
	if err != nil {
		return report, fmt.Errorf("save chart: %w", err)
	}
	report.ChartName = name
	report.ChartLocation = location
	s.logger.Info().
		Int64("product_id", int64(productID)).
		Float64("nps", report.NPS).
		Int("total", report.Total).
		Str("chart", location).
		Msg("analytics: отчёт построен")
	return report, nil
}
