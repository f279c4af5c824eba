package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/metrics"
)

// Postgres реализует domain.ReviewRepo на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.ReviewRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Insert добавляет проанализированный отзыв.
func (p *Postgres) Insert(ctx context.Context, productID domain.ProductID, comment domain.RawComment, record domain.SentimentRecord) (domain.ReviewRow, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	row := newRow(productID, comment, record)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO product_reviews (product_id, raw_comment, is_satisfied, reason, estimated_score, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`, int64(row.ProductID), row.RawComment, row.IsSatisfied, row.Reason, row.EstimatedScore, row.CreatedAt).Scan(&row.ID)
	metrics.ObserveNetworkRequest("postgres", "product_reviews_insert", "product_reviews", start, err)
	if err != nil {
		return domain.ReviewRow{}, &domain.StorageError{Op: "insert", Err: err}
	}
	return row, nil
}

// GetByProduct возвращает все отзывы товара.
func (p *Postgres) GetByProduct(ctx context.Context, productID domain.ProductID) ([]domain.ReviewRow, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, product_id, raw_comment, is_satisfied, reason, estimated_score, created_at
FROM product_reviews
WHERE product_id = $1
ORDER BY id
`, int64(productID))
	metrics.ObserveNetworkRequest("postgres", "product_reviews_select", "product_reviews", start, err)
	if err != nil {
		return nil, &domain.StorageError{Op: "select", Err: err}
	}
	defer rows.Close()

	var out []domain.ReviewRow
	for rows.Next() {
		var (
			row    domain.ReviewRow
			pid    int64
			reason sql.NullString
		)
		if err := rows.Scan(&row.ID, &pid, &row.RawComment, &row.IsSatisfied, &reason, &row.EstimatedScore, &row.CreatedAt); err != nil {
			return nil, &domain.StorageError{Op: "scan", Err: err}
		}
		row.ProductID = domain.ProductID(pid)
		row.Reason = reason.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "select", Err: err}
	}
	return out, nil
}

func newRow(productID domain.ProductID, comment domain.RawComment, record domain.SentimentRecord) domain.ReviewRow {
	satisfied, reason, score := record.Resolve()
	return domain.ReviewRow{
		ProductID:      productID,
		RawComment:     string(comment),
		IsSatisfied:    satisfied,
		Reason:         reason,
		EstimatedScore: score,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}
