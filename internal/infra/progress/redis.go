package progress

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

const (
	// DefaultTTL — сколько хранится журнал завершённой задачи.
	DefaultTTL = 24 * time.Hour
	// MaxLines ограничивает длину журнала одной задачи.
	MaxLines = 500
)

// RedisLog хранит журнал задачи в списке, а статус в отдельном ключе.
type RedisLog struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ domain.ProgressLog = (*RedisLog)(nil)

// NewRedisLog создаёт журнал прогресса поверх Redis.
func NewRedisLog(client *redis.Client, prefix string, ttl time.Duration) *RedisLog {
	if prefix == "" {
		prefix = "analysis"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLog{client: client, prefix: prefix, ttl: ttl}
}

func (l *RedisLog) linesKey(jobID string) string {
	return fmt.Sprintf("%s:%s:lines", l.prefix, jobID)
}

func (l *RedisLog) statusKey(jobID string) string {
	return fmt.Sprintf("%s:%s:status", l.prefix, jobID)
}

// Append добавляет строку в журнал задачи.
func (l *RedisLog) Append(ctx context.Context, jobID, line string) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveNetworkRequest("redis", "progress_append", l.prefix, start, err)
	}()
	key := l.linesKey(jobID)
	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, key, line)
	pipe.LTrim(ctx, key, -MaxLines, -1)
	pipe.Expire(ctx, key, l.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Lines возвращает последние last строк журнала. last <= 0 означает весь журнал.
func (l *RedisLog) Lines(ctx context.Context, jobID string, last int) ([]string, error) {
	start := int64(0)
	if last > 0 {
		start = int64(-last)
	}
	lines, err := l.client.LRange(ctx, l.linesKey(jobID), start, -1).Result()
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// SetStatus сохраняет состояние задачи.
func (l *RedisLog) SetStatus(ctx context.Context, status domain.JobStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return l.client.Set(ctx, l.statusKey(status.JobID), payload, l.ttl).Err()
}

// Status возвращает состояние задачи или domain.ErrJobNotFound.
func (l *RedisLog) Status(ctx context.Context, jobID string) (domain.JobStatus, error) {
	payload, err := l.client.Get(ctx, l.statusKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.JobStatus{}, domain.ErrJobNotFound
	}
	if err != nil {
		return domain.JobStatus{}, err
	}
	var status domain.JobStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return domain.JobStatus{}, fmt.Errorf("decode job status: %w", err)
	}
	return status, nil
}
