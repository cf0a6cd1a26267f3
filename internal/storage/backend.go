package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("state document not found")

// Ключи документов состояния. Для файлового хранилища это еще и имена файлов
const (
	KeySentNews          = "sent_news"
	KeyLastNotification  = "last_notification_id"
	KeyLastPinnedSummary = "last_pinned_summary"
	KeyLastSentSummaries = "last_sent_summaries"
)

// Backend хранит json документы по ключу. Документ перезаписывается целиком
type Backend interface {
	// Load возвращает ErrNotFound, если документа еще нет
	Load(ctx context.Context, key string, dst any) error
	Save(ctx context.Context, key string, src any) error
}
