package lock

import (
	"context"
	"sync"
	"time"

	"review-analyzer/internal/domain"
)

// LocalLock ограничивает прогоны внутри одного процесса.
type LocalLock struct {
	mu     sync.Mutex
	active map[domain.ProductID]struct{}
}

var _ domain.ProductLock = (*LocalLock)(nil)

// NewLocal создаёт блокировку в памяти.
func NewLocal() *LocalLock {
	return &LocalLock{active: make(map[domain.ProductID]struct{})}
}

// Once выполняет fn, если товар не обрабатывается. ttl не используется.
func (l *LocalLock) Once(_ context.Context, productID domain.ProductID, _ time.Duration, fn func() error) (bool, error) {
	l.mu.Lock()
	if _, busy := l.active[productID]; busy {
		l.mu.Unlock()
		return false, nil
	}
	l.active[productID] = struct{}{}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.active, productID)
		l.mu.Unlock()
	}()
	return true, fn()
}
