package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/metrics"
)

// RedisJobQueue реализует очередь задач на базе Redis lists.
type RedisJobQueue struct {
	client *redis.Client
	key    string
}

var _ domain.JobQueue = (*RedisJobQueue)(nil)

// NewRedisJobQueue создаёт очередь по указанному ключу.
func NewRedisJobQueue(client *redis.Client, key string) *RedisJobQueue {
	return &RedisJobQueue{client: client, key: key}
}

// Enqueue публикует задачу в очередь.
func (q *RedisJobQueue) Enqueue(ctx context.Context, job domain.AnalysisJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу. ack(false) возвращает задачу в голову очереди.
func (q *RedisJobQueue) Receive(ctx context.Context) (domain.AnalysisJob, domain.AckFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.AnalysisJob{}, nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.AnalysisJob{}, nil, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.AnalysisJob{}, nil, err
		}
		if len(res) != 2 {
			return domain.AnalysisJob{}, nil, errors.New("redis queue: unexpected response")
		}
		raw := res[1]
		job, err := decodeJob([]byte(raw))
		if err != nil {
			return domain.AnalysisJob{}, func(bool) error { return nil }, err
		}
		ack := func(success bool) error {
			if success {
				return nil
			}
			return q.client.RPush(context.Background(), q.key, raw).Err()
		}
		return job, ack, nil
	}
}

func decodeJob(payload []byte) (domain.AnalysisJob, error) {
	var job domain.AnalysisJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
