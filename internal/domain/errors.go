package domain

import (
	"errors"
	"fmt"
)

// ErrConfiguration возвращается при отсутствии обязательных настроек.
var ErrConfiguration = errors.New("configuration error")

// ErrNoReviews возвращается, если у товара не нашлось ни одного отзыва.
var ErrNoReviews = errors.New("no reviews found")

// FetchError описывает сбой при выгрузке отзывов. Прерывает весь прогон.
type FetchError struct {
	ProductID ProductID
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch comments for product %d: %v", e.ProductID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AnalysisError описывает сбой LLM или разбора его ответа. Затрагивает один отзыв.
type AnalysisError struct {
	Raw string
	Err error
}

func (e *AnalysisError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("analysis: %v (raw: %s)", e.Err, e.Raw)
	}
	return fmt.Sprintf("analysis: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// StorageError описывает сбой хранилища. Затрагивает одну операцию.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
