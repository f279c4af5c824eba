package domain

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound возвращается, если задача анализа неизвестна.
var ErrJobNotFound = errors.New("analysis job not found")

// AnalysisJob описывает запрос на анализ товара из дашборда.
type AnalysisJob struct {
	ID          string    `json:"job_id"`
	ProductID   ProductID `json:"product_id"`
	URL         string    `json:"url,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// JobState описывает стадию задачи.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// JobStatus — состояние задачи, видимое в дашборде.
type JobStatus struct {
	JobID     string    `json:"job_id"`
	ProductID ProductID `json:"product_id"`
	Title     string    `json:"title,omitempty"`
	State     JobState  `json:"state"`
	Percent   int       `json:"percent"`
	Error     string    `json:"error,omitempty"`
	Report    *Report   `json:"report,omitempty"`
	Analyzed  int       `json:"analyzed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobQueue описывает очередь задач анализа.
type JobQueue interface {
	Enqueue(ctx context.Context, job AnalysisJob) error
	Receive(ctx context.Context) (AnalysisJob, AckFunc, error)
}

// AckFunc подтверждает успешную обработку или возвращает задачу в очередь.
type AckFunc func(success bool) error

// ProgressLog хранит журнал и статус задач.
type ProgressLog interface {
	Append(ctx context.Context, jobID, line string) error
	Lines(ctx context.Context, jobID string, last int) ([]string, error)
	SetStatus(ctx context.Context, status JobStatus) error
	Status(ctx context.Context, jobID string) (JobStatus, error)
}

// ProductLock не даёт двум прогонам писать отзывы одного товара одновременно.
type ProductLock interface {
	// Once выполняет fn, если блокировка товара свободна, и возвращает false без
	// вызова fn, если её держит другой прогон.
	Once(ctx context.Context, productID ProductID, ttl time.Duration, fn func() error) (bool, error)
}
