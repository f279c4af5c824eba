package domain

import (
	"context"
	"io"
)

// ReviewFetcher выгружает и сэмплирует отзывы товара.
type ReviewFetcher interface {
	FetchComments(ctx context.Context, productID ProductID) ([]RawComment, error)
}

// ProductInfo возвращает отображаемое название товара.
type ProductInfo interface {
	ProductTitle(ctx context.Context, productID ProductID) string
}

// SentimentExtractor разбирает один отзыв через LLM.
type SentimentExtractor interface {
	Extract(ctx context.Context, comment RawComment) (SentimentRecord, error)
}

// ReviewRepo хранит проанализированные отзывы.
type ReviewRepo interface {
	Insert(ctx context.Context, productID ProductID, comment RawComment, record SentimentRecord) (ReviewRow, error)
	GetByProduct(ctx context.Context, productID ProductID) ([]ReviewRow, error)
}

// ChartRenderer строит изображение отчёта.
type ChartRenderer interface {
	Render(report Report) ([]byte, error)
}

// ArtifactStore сохраняет файлы отчётов. Повторная запись перезаписывает файл.
type ArtifactStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Progress принимает сообщения о ходе прогона.
type Progress interface {
	Step(message string)
	Advance(done, total int)
}

// Notifier рассылает готовый отчёт.
type Notifier interface {
	NotifyReport(ctx context.Context, report Report, chart []byte) error
}
