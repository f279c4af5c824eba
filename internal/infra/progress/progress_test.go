package progress

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"review-analyzer/internal/domain"
)

func testLog(t *testing.T, log domain.ProgressLog) {
	t.Helper()
	ctx := context.Background()

	if _, err := log.Status(ctx, "missing"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("ожидали ErrJobNotFound, получили %v", err)
	}
	lines, err := log.Lines(ctx, "missing", 20)
	if err != nil || len(lines) != 0 {
		t.Fatalf("для неизвестной задачи ожидали пустой журнал, получили %v (%v)", lines, err)
	}

	for i := 1; i <= 25; i++ {
		if err := log.Append(ctx, "job-1", fmt.Sprintf("line %d", i)); err != nil {
			t.Fatalf("не ожидали ошибку записи: %v", err)
		}
	}
	lines, err = log.Lines(ctx, "job-1", 20)
	if err != nil {
		t.Fatalf("не ожидали ошибку чтения: %v", err)
	}
	if len(lines) != 20 || lines[0] != "line 6" || lines[19] != "line 25" {
		t.Fatalf("ожидали последние 20 строк, получили %v", lines)
	}
	all, _ := log.Lines(ctx, "job-1", 0)
	if len(all) != 25 {
		t.Fatalf("ожидали весь журнал из 25 строк, получили %d", len(all))
	}

	status := domain.JobStatus{
		JobID:     "job-1",
		ProductID: 17588414,
		State:     domain.JobRunning,
		Percent:   42,
		Report:    &domain.Report{ProductID: 17588414, Total: 3, NPS: 33.33},
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := log.SetStatus(ctx, status); err != nil {
		t.Fatalf("не ожидали ошибку сохранения статуса: %v", err)
	}
	got, err := log.Status(ctx, "job-1")
	if err != nil {
		t.Fatalf("не ожидали ошибку чтения статуса: %v", err)
	}
	if got.State != domain.JobRunning || got.Percent != 42 || got.Report == nil || got.Report.NPS != 33.33 {
		t.Fatalf("неожиданный статус: %+v", got)
	}
}

func TestMemoryLog(t *testing.T) {
	testLog(t, NewMemoryLog())
}

func TestRedisLog(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	log := NewRedisLog(client, "test", time.Hour)
	testLog(t, log)

	if ttl := mr.TTL("test:job-1:lines"); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("журнал должен истекать, ttl=%v", ttl)
	}
	if ttl := mr.TTL("test:job-1:status"); ttl <= 0 {
		t.Fatalf("статус должен истекать, ttl=%v", ttl)
	}
}

func TestLogTrimsToMaxLines(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	for _, log := range []domain.ProgressLog{NewMemoryLog(), NewRedisLog(client, "", 0)} {
		for i := 0; i < MaxLines+10; i++ {
			_ = log.Append(ctx, "long", fmt.Sprintf("%d", i))
		}
		lines, err := log.Lines(ctx, "long", 0)
		if err != nil || len(lines) != MaxLines || lines[0] != "10" {
			t.Fatalf("журнал должен обрезаться до %d строк, получили %d (%v)", MaxLines, len(lines), err)
		}
	}
}
