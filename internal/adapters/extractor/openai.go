package extractor

import (
	"context"
	"errors"
	"fmt"

	"review-analyzer/internal/domain"
	openai "review-analyzer/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI извлекает оценку отзыва через OpenAI-совместимый Chat Completions API.
type OpenAI struct {
	client chatClient
	model  string
}

var _ domain.SentimentExtractor = (*OpenAI)(nil)

// NewOpenAI создаёт экстрактор.
func NewOpenAI(client chatClient, model string) *OpenAI {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAI{client: client, model: model}
}

// Extract отправляет отзыв модели и разбирает ответ.
func (o *OpenAI) Extract(ctx context.Context, comment domain.RawComment) (domain.SentimentRecord, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: SystemPrompt},
			{Role: openai.RoleUser, Content: string(comment)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject},
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.SentimentRecord{}, &domain.AnalysisError{Err: fmt.Errorf("chat completion: %w", err)}
	}
	content, err := resp.Content()
	if errors.Is(err, openai.ErrEmptyCompletion) {
		return domain.SentimentRecord{}, &domain.AnalysisError{Err: ErrEmptyResponse}
	}
	if err != nil {
		return domain.SentimentRecord{}, &domain.AnalysisError{Err: err}
	}
	return ParseResponse(content)
}
