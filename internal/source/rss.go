package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SlyMarbo/rss"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/samber/lo"

	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
)

const (
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	acceptHeader = "application/rss+xml, application/xml, text/xml;q=0.9"
	// Ленты бывают большими, но не настолько
	maxFeedSize = 8 << 20
)

// RSS клиент.
type RSSSource struct {
	// URL откуда мы забираем данные
	URL        string
	SourceName string

	client *http.Client
}

// Конструктор, который будет из модели источника создавать источник уже как клиент для RSS лент
func NewRSSSourceFromModel(m model.Source, timeout time.Duration) RSSSource {
	return RSSSource{
		URL:        m.FeedURL,
		SourceName: m.Name,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s RSSSource) Name() string {
	return s.SourceName
}

// Публичный метод, который обрабатывает данные из лент, возвращая слайс статей в порядке ленты
func (s RSSSource) Fetch(ctx context.Context) ([]model.Item, error) {
	data, err := s.loadFeed(ctx)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err == nil {
		return lo.Map(feed.Items, func(item *gofeed.Item, _ int) model.Item {
			return s.fromGofeed(item)
		}), nil
	}

	// gofeed строгий к кривому xml, у второго парсера шансов бывает больше
	fallback, fbErr := rss.Parse(data)
	if fbErr != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.SourceName, err)
	}

	return lo.Map(fallback.Items, func(item *rss.Item, _ int) model.Item {
		return s.fromRSS(item)
	}), nil
}

// Метод, который загружает данные из источника
func (s RSSSource) loadFeed(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", s.SourceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch feed %s: status %d", s.SourceName, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", s.SourceName, err)
	}

	return data, nil
}

func (s RSSSource) fromGofeed(item *gofeed.Item) model.Item {
	published := item.Published
	if published == "" {
		published = item.Updated
	}

	publishedAt := item.PublishedParsed
	if publishedAt == nil {
		publishedAt = item.UpdatedParsed
	}

	return model.Item{
		Title:       item.Title,
		Link:        item.Link,
		Published:   published,
		PublishedAt: publishedAt,
		Description: item.Description,
		Content:     item.Content,
		Categories:  item.Categories,
		Images:      gofeedImages(item),
		SourceName:  s.SourceName,
	}
}

func (s RSSSource) fromRSS(item *rss.Item) model.Item {
	var (
		published   string
		publishedAt *time.Time
	)
	if !item.Date.IsZero() {
		date := item.Date
		published = date.Format(time.RFC1123Z)
		publishedAt = &date
	}

	var images []model.ImageCandidate
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			images = append(images, model.ImageCandidate{URL: enc.URL, Kind: model.ImageKindEnclosure, Type: enc.Type})
		}
	}

	return model.Item{
		Title:       item.Title,
		Link:        item.Link,
		Published:   published,
		PublishedAt: publishedAt,
		Description: item.Summary,
		Content:     item.Content,
		Categories:  item.Categories,
		Images:      images,
		SourceName:  s.SourceName,
	}
}

// Картинки из media:content, media:thumbnail и enclosure в порядке приоритета
func gofeedImages(item *gofeed.Item) []model.ImageCandidate {
	var images []model.ImageCandidate

	media := item.Extensions["media"]

	for _, c := range mediaElements(media, "content") {
		if u := c.Attrs["url"]; u != "" {
			images = append(images, model.ImageCandidate{URL: u, Kind: model.ImageKindMedia, Type: c.Attrs["type"]})
		}
	}

	for _, t := range mediaElements(media, "thumbnail") {
		if u := t.Attrs["url"]; u != "" {
			images = append(images, model.ImageCandidate{URL: u, Kind: model.ImageKindThumbnail})
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		images = append(images, model.ImageCandidate{URL: item.Image.URL, Kind: model.ImageKindThumbnail})
	}

	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			images = append(images, model.ImageCandidate{URL: enc.URL, Kind: model.ImageKindEnclosure, Type: enc.Type})
		}
	}

	return lo.UniqBy(images, func(c model.ImageCandidate) string { return c.URL })
}

// media:content и media:thumbnail могут лежать как на верхнем уровне, так и внутри media:group
func mediaElements(media map[string][]ext.Extension, name string) []ext.Extension {
	out := append([]ext.Extension(nil), media[name]...)
	for _, group := range media["group"] {
		out = append(out, group.Children[name]...)
	}
	return out
}
