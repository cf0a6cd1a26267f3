package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit"
	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit/markup"
	"github.com/kovalyov-valentin/news-digest-bot/internal/storage"
)

type StatusChannel interface {
	SendText(ctx context.Context, text string, dialect markup.Dialect, disablePreview bool) (int, error)
	Delete(ctx context.Context, messageID int) error
}

// Rotator держит в канале одно актуальное статусное сообщение
type Rotator struct {
	channel StatusChannel
	ref     *storage.MessageRef
	log     *slog.Logger
}

func NewRotator(channel StatusChannel, ref *storage.MessageRef, log *slog.Logger) *Rotator {
	return &Rotator{
		channel: channel,
		ref:     ref,
		log:     log.With("component", "status"),
	}
}

// Publish удаляет прошлый статус и отправляет новый
func (r *Rotator) Publish(ctx context.Context, text string) error {
	if prev, ok := r.ref.Get(); ok {
		if err := r.channel.Delete(ctx, prev); err != nil {
			if botkit.IsNotFound(err) {
				r.log.Debug("previous notification already gone", "message_id", prev)
			} else {
				r.log.Warn("failed to delete previous notification", "message_id", prev, "error", err)
			}
		}
	}

	id, err := r.channel.SendText(ctx, text, markup.Plain, true)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	r.ref.Set(ctx, id)
	r.log.Info("notification updated", "message_id", id)

	return nil
}

func NotificationText(posted int) string {
	suffix := "s"
	if posted == 1 {
		suffix = ""
	}
	return fmt.Sprintf("Posted %d fresh news item%s 📈", posted, suffix)
}
