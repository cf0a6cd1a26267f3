package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var ErrEmptyCompletion = errors.New("model returned no text")

// Request - один запрос к текстовой модели
type Request struct {
	// Инструкция модели: кто она и в каком формате отвечать
	System string
	// Собственно данные
	Prompt      string
	MaxTokens   int
	Temperature float32
}

type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	GroqBaseURL = "https://api.groq.com/openai/v1"

	defaultGroqModel   = "llama-3.3-70b-versatile"
	defaultOpenAIModel = "gpt-3.5-turbo"
	defaultGeminiModel = "gemini-1.5-flash"
)

type Options struct {
	Provider string
	APIKey   string
	Model    string
	// Только для openai-совместимых провайдеров
	BaseURL string
}

// New выбирает реализацию по провайдеру
func New(ctx context.Context, opts Options, log *slog.Logger) (Completer, error) {
	switch strings.ToLower(opts.Provider) {
	case ProviderGroq, "":
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = GroqBaseURL
		}
		return NewOpenAIGenerator(opts.APIKey, baseURL, modelOr(opts.Model, defaultGroqModel), log), nil
	case ProviderOpenAI:
		return NewOpenAIGenerator(opts.APIKey, opts.BaseURL, modelOr(opts.Model, defaultOpenAIModel), log), nil
	case ProviderGemini:
		return NewGeminiGenerator(ctx, opts.APIKey, modelOr(opts.Model, defaultGeminiModel), log)
	default:
		return nil, fmt.Errorf("unknown text provider %q", opts.Provider)
	}
}

func modelOr(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}
