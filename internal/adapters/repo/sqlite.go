package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"review-analyzer/internal/domain"
)

// SQLite реализует domain.ReviewRepo поверх локального файла.
type SQLite struct {
	db *sqlx.DB
}

var _ domain.ReviewRepo = (*SQLite)(nil)

// NewSQLite создаёт адаптер SQLite.
func NewSQLite(db *sqlx.DB) *SQLite {
	return &SQLite{db: db}
}

type sqliteRow struct {
	ID             int64          `db:"id"`
	ProductID      int64          `db:"product_id"`
	RawComment     string         `db:"raw_comment"`
	IsSatisfied    bool           `db:"is_satisfied"`
	Reason         sql.NullString `db:"reason"`
	EstimatedScore int            `db:"estimated_score"`
	CreatedAt      time.Time      `db:"created_at"`
}

// Insert добавляет проанализированный отзыв.
func (s *SQLite) Insert(ctx context.Context, productID domain.ProductID, comment domain.RawComment, record domain.SentimentRecord) (domain.ReviewRow, error) {
	row := newRow(productID, comment, record)
	res, err := s.db.ExecContext(ctx, `
INSERT INTO product_reviews (product_id, raw_comment, is_satisfied, reason, estimated_score, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, int64(row.ProductID), row.RawComment, row.IsSatisfied, row.Reason, row.EstimatedScore, row.CreatedAt)
	if err != nil {
		return domain.ReviewRow{}, &domain.StorageError{Op: "insert", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.ReviewRow{}, &domain.StorageError{Op: "insert", Err: err}
	}
	row.ID = id
	return row, nil
}

// GetByProduct возвращает все отзывы товара.
func (s *SQLite) GetByProduct(ctx context.Context, productID domain.ProductID) ([]domain.ReviewRow, error) {
	var rows []sqliteRow
	err := s.db.SelectContext(ctx, &rows, `
SELECT id, product_id, raw_comment, is_satisfied, reason, estimated_score, created_at
FROM product_reviews
WHERE product_id = ?
ORDER BY id
`, int64(productID))
	if err != nil {
		return nil, &domain.StorageError{Op: "select", Err: err}
	}
	out := make([]domain.ReviewRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.ReviewRow{
			ID:             r.ID,
			ProductID:      domain.ProductID(r.ProductID),
			RawComment:     r.RawComment,
			IsSatisfied:    r.IsSatisfied,
			Reason:         r.Reason.String,
			EstimatedScore: r.EstimatedScore,
			CreatedAt:      r.CreatedAt,
		})
	}
	return out, nil
}

// Close закрывает соединение.
func (s *SQLite) Close() error {
	return s.db.Close()
}
