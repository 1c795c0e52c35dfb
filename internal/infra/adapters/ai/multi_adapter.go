package ai

import (
	"context"
	"fmt"
	"strings"

	"telegram-event-bot/internal/domain"
	"telegram-event-bot/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*MultiAIAdapter)(nil)

// MultiAIAdapter routes each call to the provider owning the model and
// retries a failed extraction once on the fallback model.
type MultiAIAdapter struct {
	defaultProvider string // e.g., "openai" or "gemini"
	byProvider      map[string]adapter.AIServiceAdapter
	modelToProvider map[string]string // model -> provider ("openai" | "gemini")
	fallbackModel   string
}

// NewMultiAIAdapter does not inject any default model; it only knows a default
// provider. Each provider adapter is responsible for its own default model.
func NewMultiAIAdapter(
	defaultProvider string,
	byProvider map[string]adapter.AIServiceAdapter,
	modelToProvider map[string]string,
	fallbackModel string,
) *MultiAIAdapter {
	return &MultiAIAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		modelToProvider: modelToProvider,
		fallbackModel:   fallbackModel,
	}
}

func (m *MultiAIAdapter) resolveProvider(model string) string {
	if p := m.modelToProvider[model]; p != "" {
		return strings.ToLower(p)
	}
	return ProviderForModel(model, m.defaultProvider)
}

// ProviderForModel maps a model name to its provider by prefix.
func ProviderForModel(model, def string) string {
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return "gemini"
	case strings.HasPrefix(l, "gpt"): // OpenAI models
		return "openai"
	default:
		return def
	}
}

func (m *MultiAIAdapter) pick(model string) adapter.AIServiceAdapter {
	prov := m.resolveProvider(model)
	if a := m.byProvider[prov]; a != nil {
		return a
	}
	// last resort: first available
	for _, a := range m.byProvider {
		if a != nil {
			return a
		}
	}
	return nil
}

func (m *MultiAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(m.modelToProvider)+4)

	// 1) models explicitly mapped in config
	for model := range m.modelToProvider {
		if _, ok := seen[model]; !ok {
			seen[model] = struct{}{}
			out = append(out, model)
		}
	}

	// 2) union of each provider's ListModels (often returns their default)
	for _, a := range m.byProvider {
		list, _ := a.ListModels(ctx)
		for _, name := range list {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
	}
	return out, nil
}

func (m *MultiAIAdapter) GetModelInfo(model string) (adapter.ModelInfo, error) {
	a := m.pick(model)
	if a == nil {
		return adapter.ModelInfo{Name: model}, nil
	}
	return a.GetModelInfo(model)
}

func (m *MultiAIAdapter) CountTokens(ctx context.Context, model string, text string) (int, error) {
	a := m.pick(model)
	if a == nil {
		return 0, domain.ErrModelNotAvailable
	}
	return a.CountTokens(ctx, model, text)
}

func (m *MultiAIAdapter) ExtractJSON(ctx context.Context, model string, prompt string) (string, adapter.Usage, error) {
	a := m.pick(model)
	if a == nil {
		return "", adapter.Usage{}, domain.ErrModelNotAvailable
	}

	text, usage, err := a.ExtractJSON(ctx, model, prompt)
	if err == nil {
		return text, usage, nil
	}
	if ctx.Err() != nil {
		return "", adapter.Usage{}, err
	}

	// One retry on the fallback model when it maps to a live provider.
	fb := m.fallbackModel
	if fb == "" || fb == model {
		return "", adapter.Usage{}, err
	}
	b := m.pick(fb)
	if b == nil || b == a {
		return "", adapter.Usage{}, err
	}
	text, usage, err2 := b.ExtractJSON(ctx, fb, prompt)
	if err2 != nil {
		return "", adapter.Usage{}, fmt.Errorf("primary %q failed (%v); fallback %q failed: %w", model, err, fb, err2)
	}
	return text, usage, nil
}
