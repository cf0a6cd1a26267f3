package summary

import (
	"context"

	"github.com/kovalyov-valentin/news-digest-bot/internal/ratelimit"
)

// WithQuota ограничивает число обращений к модели в сутки.
// Исчерпанная квота выглядит для вызывающего как обычная ошибка генерации
func WithQuota(next Completer, quota *ratelimit.Quota) Completer {
	if quota == nil {
		return next
	}
	return &quotaCompleter{next: next, quota: quota}
}

type quotaCompleter struct {
	next  Completer
	quota *ratelimit.Quota
}

func (q *quotaCompleter) Complete(ctx context.Context, req Request) (string, error) {
	if err := q.quota.Use(); err != nil {
		return "", err
	}
	return q.next.Complete(ctx, req)
}
