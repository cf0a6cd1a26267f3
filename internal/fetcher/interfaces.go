package fetcher

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
)

// Интерфейс источника
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Item, error)
}

// Публикация одной новости в канал
type Poster interface {
	Post(ctx context.Context, item model.Item) bool
}

// Статусное сообщение "сколько запостили за цикл"
type StatusPublisher interface {
	Publish(ctx context.Context, text string) error
}

// Буфер новостей за день, из него собирается дайджест
type NewsBuffer interface {
	Append(record model.NewsRecord)
}

// Множество ключей уже отправленных новостей
type DedupStore interface {
	Contains(key string) bool
	Insert(key string) bool
	Flush(ctx context.Context)
}
