package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"review-analyzer/internal/domain"
)

// StatusLines — сколько последних строк журнала показывает дашборд.
const StatusLines = 20

// View объединяет состояние задачи и хвост её журнала.
type View struct {
	domain.JobStatus
	Lines []string `json:"lines"`
}

// Service принимает задачи из дашборда и отдаёт их состояние.
type Service struct {
	queue  domain.JobQueue
	log    domain.ProgressLog
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService создаёт сервис задач анализа.
func NewService(queue domain.JobQueue, progressLog domain.ProgressLog, logger zerolog.Logger) *Service {
	return &Service{
		queue:  queue,
		log:    progressLog,
		logger: logger.With().Str("component", "jobs").Logger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Submit проверяет ссылку на товар и ставит задачу в очередь.
// Ошибки domain.ErrEmptyURL и domain.ErrInvalidProductURL возвращаются как есть.
func (s *Service) Submit(ctx context.Context, rawURL string) (domain.JobStatus, error) {
	productID, err := domain.ParseProductID(rawURL)
	if err != nil {
		return domain.JobStatus{}, err
	}
	now := s.now().UTC()
	job := domain.AnalysisJob{ID: s.newID(), ProductID: productID, URL: rawURL, RequestedAt: now}
	status := domain.JobStatus{JobID: job.ID, ProductID: productID, State: domain.JobQueued, UpdatedAt: now}

	if err := s.log.SetStatus(ctx, status); err != nil {
		return domain.JobStatus{}, fmt.Errorf("save job status: %w", err)
	}
	if err := s.log.Append(ctx, job.ID, fmt.Sprintf("Queued analysis for Product ID: %d", productID)); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("jobs: не удалось записать журнал")
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		status.State = domain.JobFailed
		status.Error = "queue unavailable"
		status.UpdatedAt = s.now().UTC()
		_ = s.log.SetStatus(ctx, status)
		return domain.JobStatus{}, fmt.Errorf("enqueue job: %w", err)
	}
	s.logger.Info().Str("job_id", job.ID).Int64("product_id", int64(productID)).Msg("jobs: задача поставлена в очередь")
	return status, nil
}

// View возвращает состояние задачи и последние строки журнала.
func (s *Service) View(ctx context.Context, jobID string) (View, error) {
	status, err := s.log.Status(ctx, jobID)
	if err != nil {
		return View{}, err
	}
	lines, err := s.log.Lines(ctx, jobID, StatusLines)
	if err != nil {
		return View{}, fmt.Errorf("read job log: %w", err)
	}
	return View{JobStatus: status, Lines: lines}, nil
}
