package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"review-analyzer/internal/domain"
)

// releaseScript удаляет ключ, только если он всё ещё принадлежит владельцу.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock реализует domain.ProductLock через SETNX.
type RedisLock struct {
	client *redis.Client
	prefix string
}

var _ domain.ProductLock = (*RedisLock)(nil)

// NewRedis создаёт блокировку товаров.
func NewRedis(client *redis.Client, prefix string) *RedisLock {
	if prefix == "" {
		prefix = "lock:product"
	}
	return &RedisLock{client: client, prefix: prefix}
}

// Once выполняет функцию, если ключ товара ещё не занят.
func (l *RedisLock) Once(ctx context.Context, productID domain.ProductID, ttl time.Duration, fn func() error) (bool, error) {
	key := fmt.Sprintf("%s:%d", l.prefix, productID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	defer func() {
		// Контекст прогона мог быть отменён, ключ всё равно нужно освободить.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}()
	return true, fn()
}
