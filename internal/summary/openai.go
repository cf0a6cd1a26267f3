package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
)

// Генератор поверх openai-совместимого апи: сам openai или groq
type OpenAIGenerator struct {
	// sdk для openai
	client *openai.Client
	model  string
	// Флаг вкл/выкл генератора
	enabled bool
	mu      sync.Mutex
}

func NewOpenAIGenerator(apiKey, baseURL, model string, log *slog.Logger) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	g := &OpenAIGenerator{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		enabled: apiKey != "",
	}

	log.Info("text generator configured", "model", model, "base_url", cfg.BaseURL, "enabled", g.enabled)

	return g
}

func (g *OpenAIGenerator) Complete(ctx context.Context, req Request) (string, error) {
	// Обкладываем мьютексами, т.к. конкурентный доступ может вызывать сюрпризы
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.enabled {
		return "", fmt.Errorf("text generator disabled: no api key")
	}

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	// Модель может вернуть несколько вариантов, берем первый
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}

	return text, nil
}
