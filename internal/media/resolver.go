package media

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
)

type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Origin - откуда в итоге взялась картинка
type Origin string

const (
	OriginNone      Origin = ""
	OriginFeed      Origin = "feed"
	OriginArticle   Origin = "article"
	OriginGenerated Origin = "generated"
)

// Resolver ищет иллюстрацию к новости: лента, страница статьи, генерация
type Resolver struct {
	downloader *Downloader
	generator  ImageGenerator
	// Если 0, на страницу статьи не ходим
	articleTimeout time.Duration
	// Подменяется в тестах
	leadImage func(pageURL string, timeout time.Duration) (string, error)
	log       *slog.Logger
}

func NewResolver(downloader *Downloader, generator ImageGenerator, articleTimeout time.Duration, log *slog.Logger) *Resolver {
	return &Resolver{
		downloader:     downloader,
		generator:      generator,
		articleTimeout: articleTimeout,
		leadImage:      readabilityLeadImage,
		log:            log.With("component", "media"),
	}
}

// Resolve никогда не возвращает ошибку: нет картинки - значит пост уйдет текстом
func (r *Resolver) Resolve(ctx context.Context, item model.Item, shortDesc string) ([]byte, Origin) {
	url := ImageURL(item)
	origin := OriginFeed

	if url == "" && r.articleTimeout > 0 && item.Link != "" {
		lead, err := r.leadImage(item.Link, r.articleTimeout)
		if err != nil {
			r.log.Debug("no lead image on article page", "link", item.Link, "error", err)
		}
		url, origin = lead, OriginArticle
	}

	if url != "" {
		img, err := r.downloader.Download(ctx, url)
		if err == nil {
			return img, origin
		}
		r.log.Warn("failed to download image", "url", url, "error", err)
	}

	if r.generator == nil {
		return nil, OriginNone
	}

	img, err := r.generator.Generate(ctx, Prompt(item.Title, shortDesc))
	if err != nil {
		r.log.Warn("failed to generate image", "title", item.Title, "error", err)
		return nil, OriginNone
	}

	return img, OriginGenerated
}

func Prompt(title, shortDesc string) string {
	return fmt.Sprintf(
		"Professional news illustration: %s. %s. Modern style, tech and space theme, high quality, realistic",
		title,
		shortDesc,
	)
}

// Главная картинка статьи по og:image и прочим метаданным страницы
func readabilityLeadImage(pageURL string, timeout time.Duration) (string, error) {
	article, err := readability.FromURL(pageURL, timeout)
	if err != nil {
		return "", err
	}
	return article.Image, nil
}
