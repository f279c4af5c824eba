package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/metrics"
)

// ErrProductBusy возвращается, если товар уже анализируется другим прогоном.
var ErrProductBusy = errors.New("product analysis already in progress")

type pipelineRunner interface {
	Run(ctx context.Context, productID domain.ProductID, progress domain.Progress) (domain.RunSummary, error)
}

// Worker читает задачи из очереди и выполняет пайплайн.
type Worker struct {
	queue    domain.JobQueue
	pipeline pipelineRunner
	log      domain.ProgressLog
	lock     domain.ProductLock
	lockTTL  time.Duration
	logger   zerolog.Logger
	now      func() time.Time
	backoff  time.Duration
}

// NewWorker создаёт обработчик очереди.
func NewWorker(queue domain.JobQueue, runner pipelineRunner, progressLog domain.ProgressLog, lock domain.ProductLock, lockTTL time.Duration, logger zerolog.Logger) *Worker {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}
	return &Worker{
		queue:    queue,
		pipeline: runner,
		log:      progressLog,
		lock:     lock,
		lockTTL:  lockTTL,
		logger:   logger.With().Str("component", "worker").Logger(),
		now:      time.Now,
		backoff:  time.Second,
	}
}

// Run обрабатывает очередь до отмены контекста.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error().Err(err).Msg("worker: ошибка чтения очереди")
			w.sleep(ctx)
			continue
		}

		jobLog := w.logger.With().Str("job_id", job.ID).Int64("product_id", int64(job.ProductID)).Logger()
		if job.ID == "" || job.ProductID <= 0 {
			jobLog.Error().Msg("worker: некорректная задача, подтверждаем и пропускаем")
			if err := ack(true); err != nil {
				jobLog.Error().Err(err).Msg("worker: не удалось подтвердить задачу")
			}
			continue
		}

		err = w.Handle(ctx, job)
		if ctx.Err() != nil {
			jobLog.Warn().Msg("worker: остановка во время обработки, возвращаем задачу в очередь")
			if ackErr := ack(false); ackErr != nil {
				jobLog.Error().Err(ackErr).Msg("worker: не удалось вернуть задачу в очередь")
			}
			return
		}
		if err != nil {
			jobLog.Warn().Err(err).Msg("worker: задача завершилась ошибкой")
		}
		if ackErr := ack(true); ackErr != nil {
			jobLog.Error().Err(ackErr).Msg("worker: не удалось подтвердить задачу")
		}
	}
}

// Handle выполняет одну задачу и записывает итоговый статус.
func (w *Worker) Handle(ctx context.Context, job domain.AnalysisJob) error {
	sink := &logProgress{
		ctx:    ctx,
		log:    w.log,
		logger: w.logger,
		now:    w.now,
		status: domain.JobStatus{JobID: job.ID, ProductID: job.ProductID, State: domain.JobRunning, UpdatedAt: w.now().UTC()},
	}
	if err := w.log.SetStatus(ctx, sink.status); err != nil {
		w.logger.Warn().Err(err).Str("job_id", job.ID).Msg("worker: не удалось обновить статус")
	}

	var (
		summary domain.RunSummary
		runErr  error
	)
	ran, lockErr := w.lock.Once(ctx, job.ProductID, w.lockTTL, func() error {
		summary, runErr = w.pipeline.Run(ctx, job.ProductID, sink)
		return runErr
	})
	if lockErr == nil && !ran {
		sink.Step("ERROR: Another analysis of this product is already running.")
		return w.finish(ctx, sink, summary, ErrProductBusy)
	}
	if !ran {
		return w.finish(ctx, sink, summary, lockErr)
	}
	if runErr == nil && summary.ReportErr != nil {
		runErr = summary.ReportErr
	}
	return w.finish(ctx, sink, summary, runErr)
}

func (w *Worker) finish(ctx context.Context, sink *logProgress, summary domain.RunSummary, err error) error {
	status := sink.snapshot()
	status.Title = summary.Title
	status.Report = summary.Report
	if summary.Sampled > 0 {
		status.Analyzed = summary.Sampled
	}
	status.UpdatedAt = w.now().UTC()
	switch {
	case err == nil:
		status.State = domain.JobSucceeded
		status.Percent = 100
	case ctx.Err() != nil:
		status.State = domain.JobQueued
		status.Error = ""
	default:
		status.State = domain.JobFailed
		status.Error = err.Error()
	}
	metrics.JobsTotal.WithLabelValues(string(status.State)).Inc()

	// Итоговый статус сохраняется и после отмены контекста.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if saveErr := w.log.SetStatus(saveCtx, status); saveErr != nil {
		w.logger.Error().Err(saveErr).Str("job_id", status.JobID).Msg("worker: не удалось сохранить итоговый статус")
	}
	return err
}

func (w *Worker) sleep(ctx context.Context) {
	timer := time.NewTimer(w.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
