package queue

import (
	"context"
	"errors"

	"review-analyzer/internal/domain"
)

// ErrQueueFull возвращается, если в очереди в памяти нет места.
var ErrQueueFull = errors.New("queue is full")

// MemoryJobQueue — очередь в памяти процесса для запуска дашборда без брокера.
type MemoryJobQueue struct {
	jobs chan domain.AnalysisJob
}

var _ domain.JobQueue = (*MemoryJobQueue)(nil)

// NewMemoryJobQueue создаёт очередь заданной ёмкости.
func NewMemoryJobQueue(size int) *MemoryJobQueue {
	if size <= 0 {
		size = 64
	}
	return &MemoryJobQueue{jobs: make(chan domain.AnalysisJob, size)}
}

// Enqueue кладёт задачу в очередь, не блокируясь.
func (q *MemoryJobQueue) Enqueue(ctx context.Context, job domain.AnalysisJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Receive ждёт следующую задачу.
func (q *MemoryJobQueue) Receive(ctx context.Context) (domain.AnalysisJob, domain.AckFunc, error) {
	select {
	case <-ctx.Done():
		return domain.AnalysisJob{}, nil, ctx.Err()
	case job := <-q.jobs:
		ack := func(success bool) error {
			if success {
				return nil
			}
			select {
			case q.jobs <- job:
				return nil
			default:
				return ErrQueueFull
			}
		}
		return job, ack, nil
	}
}
