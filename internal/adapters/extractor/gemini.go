package extractor

import (
	"context"
	"fmt"
	"time"

	genai "google.golang.org/genai"

	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/metrics"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini извлекает оценку отзыва через Gemini API.
type Gemini struct {
	models contentGenerator
	model  string
}

var _ domain.SentimentExtractor = (*Gemini)(nil)

// NewGemini создаёт экстрактор на официальном клиенте genai.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return newGemini(cli.Models, model), nil
}

func newGemini(models contentGenerator, model string) *Gemini {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{models: models, model: model}
}

// Extract отправляет отзыв модели и разбирает ответ.
func (g *Gemini) Extract(ctx context.Context, comment domain.RawComment) (domain.SentimentRecord, error) {
	temp := float32(temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SystemPrompt}}},
		Temperature:       &temp,
		MaxOutputTokens:   maxTokens,
		ResponseMIMEType:  "application/json",
	}
	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: string(comment)}}}},
		cfg,
	)
	metrics.ObserveNetworkRequest("gemini", "generate_content", g.model, start, err)
	if err != nil {
		return domain.SentimentRecord{}, &domain.AnalysisError{Err: fmt.Errorf("generate content: %w", err)}
	}
	if usage := resp.UsageMetadata; usage != nil {
		metrics.ObserveLLMGeneration(g.model, time.Since(start), int(usage.PromptTokenCount), int(usage.CandidatesTokenCount), int(usage.TotalTokenCount))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return domain.SentimentRecord{}, &domain.AnalysisError{Err: ErrEmptyResponse}
	}
	return ParseResponse(resp.Candidates[0].Content.Parts[0].Text)
}
