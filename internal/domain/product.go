package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrEmptyURL возвращается для пустой ссылки на товар.
var ErrEmptyURL = errors.New("product url is empty")

// ErrInvalidProductURL возвращается, если в ссылке нет идентификатора dkp-.
var ErrInvalidProductURL = errors.New("invalid url: missing 'dkp-' identifier")

var productIDPattern = regexp.MustCompile(`dkp-(\d+)`)

// ParseProductID извлекает идентификатор товара из ссылки вида .../dkp-123456/...
func ParseProductID(rawURL string) (ProductID, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return 0, ErrEmptyURL
	}
	match := productIDPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return 0, ErrInvalidProductURL
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidProductURL, match[1])
	}
	return ProductID(id), nil
}

// FallbackTitle возвращает синтетическое название товара.
func FallbackTitle(id ProductID) string {
	return fmt.Sprintf("Product #%d", id)
}

// ChartName возвращает имя файла отчёта для товара.
func ChartName(id ProductID) string {
	return fmt.Sprintf("analytics_product_%d.png", id)
}

// DownloadName возвращает имя файла для скачивания отчёта.
func DownloadName(id ProductID) string {
	return fmt.Sprintf("Analytics_Report_%d.png", id)
}
