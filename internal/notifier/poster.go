package notifier

import (
	"context"
	"log/slog"

	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit"
	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit/markup"
	"github.com/kovalyov-valentin/news-digest-bot/internal/media"
	"github.com/kovalyov-valentin/news-digest-bot/internal/metrics"
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
	"github.com/kovalyov-valentin/news-digest-bot/internal/publisher"
)

type Sender interface {
	SendText(ctx context.Context, text string, dialect markup.Dialect, disablePreview bool) (int, error)
	SendPhoto(ctx context.Context, image []byte, caption string, dialect markup.Dialect) (int, error)
}

type ImageResolver interface {
	Resolve(ctx context.Context, item model.Item, shortDesc string) ([]byte, media.Origin)
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// Poster публикует одну новость в канал
type Poster struct {
	sender  Sender
	images  ImageResolver
	events  EventPublisher
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewPoster(sender Sender, images ImageResolver, events EventPublisher, m *metrics.Metrics, log *slog.Logger) *Poster {
	return &Poster{
		sender:  sender,
		images:  images,
		events:  events,
		metrics: m,
		log:     log.With("component", "poster"),
	}
}

// Post возвращает true, если новость оказалась в канале в каком-либо виде
func (p *Poster) Post(ctx context.Context, item model.Item) bool {
	caption := BuildCaption(item)

	image, origin := p.images.Resolve(ctx, item, caption.ShortDesc)
	if origin == media.OriginGenerated {
		p.metrics.IncrementImagesGenerated()
	}

	var err error
	if len(image) > 0 {
		_, err = p.sender.SendPhoto(ctx, image, caption.Markdown, markup.MarkdownV2)
	} else {
		_, err = p.sender.SendText(ctx, caption.Markdown, markup.MarkdownV2, true)
	}

	fallback := false
	if err != nil {
		if !botkit.IsAPIError(err) {
			p.log.Error("failed to send news", "title", item.Title, "error", err)
			p.metrics.IncrementPostFailures()
			return false
		}

		// Телеграм отверг сообщение (чаще всего разметку), пробуем простым текстом без фото
		p.log.Warn("telegram rejected news, sending plain text", "title", item.Title, "error", err)
		if _, err := p.sender.SendText(ctx, caption.Plain, markup.Plain, true); err != nil {
			p.log.Error("fallback send failed", "title", item.Title, "error", err)
			p.metrics.IncrementPostFailures()
			return false
		}

		fallback = true
		origin = media.OriginNone
		p.metrics.IncrementFallbackPosts()
	}

	p.metrics.IncrementNewsPosted()
	p.log.Info("sent news", "title", item.Title, "source", item.SourceName, "image", string(origin), "fallback", fallback)

	if err := p.events.Publish(ctx, publisher.EventNewsPosted, publisher.NewsPosted{
		Title:       item.Title,
		Link:        item.Link,
		Source:      item.SourceName,
		Published:   item.Published,
		ImageOrigin: string(origin),
		Fallback:    fallback,
	}); err != nil {
		p.log.Warn("failed to publish event", "event", publisher.EventNewsPosted, "error", err)
	}

	return true
}
