package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCreateChatCompletion(t *testing.T) {
	var captured ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("неожиданный путь %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("неожиданный заголовок авторизации %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "  {\"ok\":true} "}}},
			"usage":   map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: srv.URL + "/v1/", Timeout: time.Second})
	resp, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model:          "gpt-4o",
		Temperature:    0.1,
		MaxTokens:      150,
		Messages:       []ChatMessage{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "hi"}},
		ResponseFormat: &ChatCompletionResponseFormat{Type: ResponseFormatTypeJSONObject},
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	content, err := resp.Content()
	if err != nil || content != `{"ok":true}` {
		t.Fatalf("неожиданный ответ %q (%v)", content, err)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != ResponseFormatTypeJSONObject {
		t.Fatalf("ожидали response_format=json_object")
	}
	if captured.MaxTokens != 150 || len(captured.Messages) != 2 {
		t.Fatalf("запрос передан не полностью: %+v", captured)
	}
}

func TestCreateChatCompletionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: srv.URL})
	_, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ожидали APIError, получили %v", err)
	}
	if apiErr.Status != http.StatusTooManyRequests || apiErr.Message != "rate limited" {
		t.Fatalf("неожиданная ошибка: %+v", apiErr)
	}
}

func TestCreateChatCompletionRequiresKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{}); err == nil {
		t.Fatal("ожидали ошибку без ключа")
	}
}

func TestContentEmpty(t *testing.T) {
	if _, err := (ChatCompletionResponse{}).Content(); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("ожидали ErrEmptyCompletion, получили %v", err)
	}
}
