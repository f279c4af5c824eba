package progress

import (
	"context"
	"sync"

	"review-analyzer/internal/domain"
)

// MemoryLog хранит журналы в памяти процесса. Подходит для одиночного запуска дашборда.
type MemoryLog struct {
	mu       sync.RWMutex
	lines    map[string][]string
	statuses map[string]domain.JobStatus
}

var _ domain.ProgressLog = (*MemoryLog)(nil)

// NewMemoryLog создаёт пустой журнал.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		lines:    make(map[string][]string),
		statuses: make(map[string]domain.JobStatus),
	}
}

// Append добавляет строку в журнал задачи.
func (l *MemoryLog) Append(_ context.Context, jobID, line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	lines := append(l.lines[jobID], line)
	if len(lines) > MaxLines {
		lines = lines[len(lines)-MaxLines:]
	}
	l.lines[jobID] = lines
	return nil
}

// Lines возвращает копию последних last строк.
func (l *MemoryLog) Lines(_ context.Context, jobID string, last int) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lines := l.lines[jobID]
	if last > 0 && len(lines) > last {
		lines = lines[len(lines)-last:]
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out, nil
}

// SetStatus сохраняет состояние задачи.
func (l *MemoryLog) SetStatus(_ context.Context, status domain.JobStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses[status.JobID] = status
	return nil
}

// Status возвращает состояние задачи или domain.ErrJobNotFound.
func (l *MemoryLog) Status(_ context.Context, jobID string) (domain.JobStatus, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	status, ok := l.statuses[jobID]
	if !ok {
		return domain.JobStatus{}, domain.ErrJobNotFound
	}
	return status, nil
}
