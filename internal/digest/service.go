package digest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit"
	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit/markup"
	"github.com/kovalyov-valentin/news-digest-bot/internal/metrics"
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
	"github.com/kovalyov-valentin/news-digest-bot/internal/publisher"
	"github.com/kovalyov-valentin/news-digest-bot/internal/storage"
)

const pinFailedNote = "(could not pin message)"

type Channel interface {
	SendText(ctx context.Context, text string, dialect markup.Dialect, disablePreview bool) (int, error)
	Delete(ctx context.Context, messageID int) error
	Pin(ctx context.Context, messageID int, silent bool) error
	Unpin(ctx context.Context, messageID int) error
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// Result - что в итоге оказалось в канале
type Result struct {
	MessageID int
	Pinned    bool
	Items     int
	Generated bool
}

// Service собирает дайджест и держит закрепленным только последний.
// Одновременно публикуется не больше одного дайджеста
type Service struct {
	mu sync.Mutex

	buffer   *Buffer
	composer *Composer
	channel  Channel
	pin      *storage.MessageRef
	events   EventPublisher
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewService(
	buffer *Buffer,
	composer *Composer,
	channel Channel,
	pin *storage.MessageRef,
	events EventPublisher,
	m *metrics.Metrics,
	log *slog.Logger,
) *Service {
	return &Service{
		buffer:   buffer,
		composer: composer,
		channel:  channel,
		pin:      pin,
		events:   events,
		metrics:  m,
		log:      log.With("component", "digest"),
	}
}

// Publish собирает дайджест по буферу, отправляет и закрепляет его.
// Ошибка возвращается, только если в канал не ушло вообще ничего
func (s *Service) Publish(ctx context.Context, slot model.Slot) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.buffer.Snapshot()
	// Буфер чистим в любом случае, но только от того, что попало в снимок
	defer s.buffer.Discard(len(records))

	draft := s.composer.Compose(ctx, slot, records)
	if !draft.Generated && draft.Items > 0 {
		s.metrics.IncrementDigestFailures()
	}

	res := Result{Items: draft.Items, Generated: draft.Generated}
	text := markup.EscapeForMarkdown(draft.Text)

	s.unpinPrevious(ctx)

	id, err := s.channel.SendText(ctx, text, markup.MarkdownV2, true)
	if err == nil {
		if err = s.channel.Pin(ctx, id, true); err != nil {
			// Висящий незакрепленный дубль не нужен, ниже отправим версию с пометкой
			if delErr := s.channel.Delete(ctx, id); delErr != nil {
				s.log.Warn("failed to delete unpinned summary", "message_id", id, "error", delErr)
			}
		}
	}

	if err != nil {
		s.log.Error("failed to send/pin summary", "slot", string(slot), "error", err)

		annotated := text + "\n\n_" + markup.EscapeForMarkdown(pinFailedNote) + "_"
		id, err = s.channel.SendText(ctx, annotated, markup.MarkdownV2, true)
		if err != nil {
			s.metrics.IncrementDigestFailures()
			return res, fmt.Errorf("send summary: %w", err)
		}
	} else {
		s.pin.Set(ctx, id)
		res.Pinned = true
		s.log.Info("pinned new summary", "slot", string(slot), "message_id", id)
	}

	res.MessageID = id
	s.metrics.IncrementDigestsPublished()

	if err := s.events.Publish(ctx, publisher.EventDigestPublished, publisher.DigestPublished{
		Slot:      string(slot),
		Date:      draft.Date,
		Items:     draft.Items,
		MessageID: id,
		Pinned:    res.Pinned,
		Generated: draft.Generated,
	}); err != nil {
		s.log.Warn("failed to publish event", "event", publisher.EventDigestPublished, "error", err)
	}

	return res, nil
}

func (s *Service) unpinPrevious(ctx context.Context) {
	prev, ok := s.pin.Get()
	if !ok {
		return
	}

	if err := s.channel.Unpin(ctx, prev); err != nil {
		if botkit.IsNotFound(err) {
			s.log.Debug("previous summary already gone", "message_id", prev)
			return
		}
		s.log.Info("could not unpin old summary", "message_id", prev, "error", err)
		return
	}

	s.log.Info("unpinned old summary", "message_id", prev)
}
