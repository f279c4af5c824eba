package domain

import (
	"strconv"
	"strings"
	"time"
)

// ProductID идентифицирует товар в источнике отзывов.
type ProductID int64

// RawComment — очищенный текст отзыва до анализа.
type RawComment string

// SentimentRecord содержит результат разбора ответа LLM.
// Nil-поле означает, что модель его не вернула.
type SentimentRecord struct {
	IsSatisfied    *bool
	Reason         *string
	EstimatedScore *int
}

const (
	// DefaultReason подставляется, если модель не указала причину.
	DefaultReason = "unspecified"
	// DefaultScore подставляется, если модель не указала оценку.
	DefaultScore = 5

	MinScore = 1
	MaxScore = 10
)

// Resolve возвращает значения записи с подставленными значениями по умолчанию.
func (r SentimentRecord) Resolve() (satisfied bool, reason string, score int) {
	satisfied = false
	reason = DefaultReason
	score = DefaultScore
	if r.IsSatisfied != nil {
		satisfied = *r.IsSatisfied
	}
	if r.Reason != nil {
		reason = *r.Reason
	}
	if r.EstimatedScore != nil {
		score = *r.EstimatedScore
	}
	return satisfied, reason, score
}

// ReviewRow — сохранённый проанализированный отзыв.
type ReviewRow struct {
	ID             int64
	ProductID      ProductID
	RawComment     string
	IsSatisfied    bool
	Reason         string
	EstimatedScore int
	CreatedAt      time.Time
}

// Report описывает агрегированную статистику по товару.
type Report struct {
	ProductID         ProductID     `json:"product_id"`
	Title             string        `json:"title"`
	Total             int           `json:"total"`
	NPS               float64       `json:"nps"`
	SatisfactionCount int           `json:"satisfaction_count"`
	Histogram         [MaxScore]int `json:"histogram"`
	ChartName         string        `json:"chart_name,omitempty"`
	ChartLocation     string        `json:"chart_location,omitempty"`
	GeneratedAt       time.Time     `json:"generated_at"`
}

// Dissatisfied возвращает число недовольных покупателей.
func (r Report) Dissatisfied() int {
	return r.Total - r.SatisfactionCount
}

// ItemResult хранит исход обработки одного отзыва.
type ItemResult struct {
	Index   int
	Comment RawComment
	Row     *ReviewRow
	Err     error
}

// OK сообщает, что отзыв проанализирован и сохранён.
func (r ItemResult) OK() bool {
	return r.Err == nil
}

// RunSummary — итог одного прогона пайплайна.
type RunSummary struct {
	ProductID ProductID
	Title     string
	Sampled   int
	Succeeded int
	Failed    int
	Items     []ItemResult
	Report    *Report
	ReportErr error
	StartedAt time.Time
	Duration  time.Duration
}

// FormatNPS печатает NPS с минимальным числом знаков, целое значение с ".0".
func FormatNPS(nps float64) string {
	s := strconv.FormatFloat(nps, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
