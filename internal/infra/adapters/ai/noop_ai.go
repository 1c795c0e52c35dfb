package ai

import (
	"context"
	"log"
	"time"

	"telegram-event-bot/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements adapter.AIServiceAdapter for local/dev testing.
// It logs prompts and returns a canned extraction instead of calling a
// real provider.
type NoopAIAdapter struct{}

// NewNoopAIAdapter constructs the noop adapter.
func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{}
}

func (a *NoopAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []string{"noop-ai-model"}, nil
}

func (a *NoopAIAdapter) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{
		Name:        "noop-ai-model",
		Description: "Noop AI model for testing",
		MaxTokens:   1024,
		Supports:    []string{"text"},
	}, nil
}

// CountTokens approximates four characters per token.
func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, text string) (int, error) {
	return len(text)/4 + 1, nil
}

// ExtractJSON logs the prompt and returns a fixed event one hour out, so the
// full pipeline can run without a provider key.
func (a *NoopAIAdapter) ExtractJSON(ctx context.Context, model string, prompt string) (string, adapter.Usage, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}
	log.Printf("[noop-ai] extraction prompt (%d bytes)\n", len(prompt))
	start := time.Now().Add(1 * time.Hour).Format("2006-01-02 15:04")
	resp := `{"title": "Test Event", "start_time_str": "` + start + `", "end_time_str": null, "duration_str": "1 hour", "location": null, "reminder": 30, "timezone": null}`
	return resp, adapter.Usage{PromptTokens: len(prompt) / 4, CompletionTokens: 32, TotalTokens: len(prompt)/4 + 32}, nil
}
