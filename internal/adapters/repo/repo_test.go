package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/db"
)

func newSQLiteRepo(t *testing.T) *SQLite {
	t.Helper()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "data", "reviews.db"))
	if err != nil {
		t.Fatalf("не удалось открыть sqlite: %v", err)
	}
	store := NewSQLite(conn)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteRoundTrip(t *testing.T) {
	testRoundTrip(t, newSQLiteRepo(t))
}

func TestSQLiteDefaultsAndDuplicates(t *testing.T) {
	testDefaultsAndDuplicates(t, newSQLiteRepo(t))
}

func TestSQLiteStorageError(t *testing.T) {
	store := newSQLiteRepo(t)
	_ = store.Close()
	_, err := store.Insert(context.Background(), 1, "закрытая база", domain.SentimentRecord{})
	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("ожидали StorageError, получили %v", err)
	}
}

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN не задан")
	}
	pool, err := db.Connect(dsn)
	if err != nil {
		t.Fatalf("нет подключения к БД: %v", err)
	}
	defer pool.Close()
	store := NewPostgres(pool)
	testRoundTrip(t, store)
	testDefaultsAndDuplicates(t, store)
}

func testRoundTrip(t *testing.T, store domain.ReviewRepo) {
	t.Helper()
	ctx := context.Background()
	productID := domain.ProductID(time.Now().UnixNano() % 1_000_000_000)
	satisfied, reason, score := true, "کیفیت ساخت بالا", 9
	inserted, err := store.Insert(ctx, productID, "کیفیت عالی و ارسال سریع بود", domain.SentimentRecord{
		IsSatisfied:    &satisfied,
		Reason:         &reason,
		EstimatedScore: &score,
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку вставки: %v", err)
	}
	if inserted.ID == 0 {
		t.Fatalf("ожидали присвоенный id")
	}

	rows, err := store.GetByProduct(ctx, productID)
	if err != nil {
		t.Fatalf("не ожидали ошибку выборки: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("ожидали 1 строку, получили %d", len(rows))
	}
	got := rows[0]
	if got.ID != inserted.ID || got.ProductID != productID || got.RawComment != "کیفیت عالی و ارسال سریع بود" {
		t.Fatalf("строка не совпадает: %+v", got)
	}
	if got.IsSatisfied != satisfied || got.Reason != reason || got.EstimatedScore != score {
		t.Fatalf("поля анализа не совпадают: %+v", got)
	}
	if d := got.CreatedAt.Sub(inserted.CreatedAt); d > time.Second || d < -time.Second {
		t.Fatalf("created_at не совпадает: %v vs %v", got.CreatedAt, inserted.CreatedAt)
	}

	other, err := store.GetByProduct(ctx, productID+1)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("ожидали пустой результат для другого товара")
	}
}

func testDefaultsAndDuplicates(t *testing.T, store domain.ReviewRepo) {
	t.Helper()
	ctx := context.Background()
	productID := domain.ProductID(time.Now().UnixNano()%1_000_000_000 + 7)
	for i := 0; i < 2; i++ {
		if _, err := store.Insert(ctx, productID, "без полей анализа", domain.SentimentRecord{}); err != nil {
			t.Fatalf("не ожидали ошибку вставки: %v", err)
		}
	}
	rows, err := store.GetByProduct(ctx, productID)
	if err != nil {
		t.Fatalf("не ожидали ошибку выборки: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("повторная вставка должна создавать новую строку, получили %d", len(rows))
	}
	for _, row := range rows {
		if row.IsSatisfied || row.Reason != domain.DefaultReason || row.EstimatedScore != domain.DefaultScore {
			t.Fatalf("ожидали значения по умолчанию, получили %+v", row)
		}
	}
	if rows[0].ID == rows[1].ID {
		t.Fatalf("ожидали разные id")
	}
}
