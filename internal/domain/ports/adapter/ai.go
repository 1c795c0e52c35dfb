package adapter

import "context"

// ModelInfo describes a model.
type ModelInfo struct {
	Name        string
	Description string
	MaxTokens   int
	Supports    []string
}

// Usage for a single extraction call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIServiceAdapter is the port for LLM-backed event extraction.
type AIServiceAdapter interface {
	ListModels(ctx context.Context) ([]string, error)
	GetModelInfo(model string) (ModelInfo, error)

	// CountTokens must return prompt tokens for the provided text
	// (provider-specific counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, model string, text string) (int, error)

	// ExtractJSON sends the extraction prompt and returns the model's raw
	// response text (expected to be a single JSON object, possibly wrapped
	// in markdown fences) plus usage as reported by the provider.
	ExtractJSON(ctx context.Context, model string, prompt string) (string, Usage, error)
}
