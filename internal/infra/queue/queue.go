package queue

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"review-analyzer/internal/domain"
)

// Config описывает выбор брокера задач.
type Config struct {
	Driver    string
	Name      string
	RabbitURL string
}

// New создаёт очередь по имени драйвера: memory, redis или rabbitmq.
// Для redis требуется готовый клиент.
func New(cfg Config, rdb *redis.Client) (domain.JobQueue, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryJobQueue(0), noop, nil
	case "redis":
		if rdb == nil {
			return nil, nil, fmt.Errorf("%w: REDIS_ADDR is required for redis queue", domain.ErrConfiguration)
		}
		return NewRedisJobQueue(rdb, cfg.Name), noop, nil
	case "rabbitmq":
		q, err := NewRabbitJobQueue(cfg.RabbitURL, cfg.Name)
		if err != nil {
			return nil, nil, err
		}
		return q, q.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown QUEUE_DRIVER %q", domain.ErrConfiguration, cfg.Driver)
	}
}
