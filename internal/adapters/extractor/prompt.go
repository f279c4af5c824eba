package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"review-analyzer/internal/domain"
)

// SystemPrompt — инструкция для модели. Отзыв передаётся отдельным сообщением.
const SystemPrompt = `You are an expert Data Scientist and Sentiment Analyst.
Analyze the provided user comment about a product and extract metadata.
You MUST respond ONLY with a valid JSON object.

Rules for Extraction:
1. "is_satisfied": Boolean (true if the user is generally happy/recommends it, false if angry/dissatisfied).
2. "reason": A brief 3-5 word summary in Persian explaining the main reason for their feeling.
3. "estimated_score": Integer from 1 to 10 (1=terrible, 10=excellent). Estimate based on tone.

JSON Format:
{
    "is_satisfied": true,
    "reason": "کیفیت ساخت بالا",
    "estimated_score": 9
}`

const (
	temperature = 0.1
	maxTokens   = 150
)

var (
	// ErrEmptyResponse — модель вернула пустой текст.
	ErrEmptyResponse = errors.New("empty response")
	// ErrMalformedResponse — ответ не является JSON-объектом нужной формы.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrScoreOutOfRange — оценка вне диапазона 1..10.
	ErrScoreOutOfRange = errors.New("estimated_score out of range")
)

type sentimentPayload struct {
	IsSatisfied    *bool   `json:"is_satisfied"`
	Reason         *string `json:"reason"`
	EstimatedScore *int    `json:"estimated_score"`
}

// ParseResponse строго разбирает ответ модели. Лишние ключи игнорируются.
func ParseResponse(raw string) (domain.SentimentRecord, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return domain.SentimentRecord{}, &domain.AnalysisError{Raw: raw, Err: ErrEmptyResponse}
	}
	if !strings.HasPrefix(text, "{") {
		return domain.SentimentRecord{}, &domain.AnalysisError{Raw: raw, Err: ErrMalformedResponse}
	}
	var payload sentimentPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return domain.SentimentRecord{}, &domain.AnalysisError{Raw: raw, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if s := payload.EstimatedScore; s != nil && (*s < domain.MinScore || *s > domain.MaxScore) {
		return domain.SentimentRecord{}, &domain.AnalysisError{Raw: raw, Err: fmt.Errorf("%w: %d", ErrScoreOutOfRange, *s)}
	}
	return domain.SentimentRecord{
		IsSatisfied:    payload.IsSatisfied,
		Reason:         payload.Reason,
		EstimatedScore: payload.EstimatedScore,
	}, nil
}
