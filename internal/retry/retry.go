package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/kovalyov-valentin/news-digest-bot/internal/clock"
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	// Линейно увеличивать паузу с каждой попыткой
	Backoff bool
	// Если nil, используется реальное время
	Clock clock.Clock
}

// WithRetry вызывает fn, пока она не вернет nil или не кончатся попытки
func WithRetry(ctx context.Context, cfg Config, fn func() error) error {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		delay := cfg.Delay
		if cfg.Backoff {
			delay = time.Duration(attempt) * cfg.Delay
		}

		if err := clk.Sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
