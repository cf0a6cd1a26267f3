package fetcher

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kovalyov-valentin/news-digest-bot/internal/clock"
	"github.com/kovalyov-valentin/news-digest-bot/internal/filter"
	"github.com/kovalyov-valentin/news-digest-bot/internal/metrics"
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
	"github.com/kovalyov-valentin/news-digest-bot/internal/notifier"
	"github.com/kovalyov-valentin/news-digest-bot/internal/source"
)

type Config struct {
	// Сколько первых записей каждой ленты смотрим в фоновом цикле
	EntriesPerFeed int
	// Сколько новостей постим за один фоновый цикл
	PostsPerCycle int
	// Сколько новостей постим при старте
	CatchUpLimit int
	// Запас назад от времени прошлого опроса
	RecencyGrace time.Duration

	PollIntervalMin time.Duration
	PollIntervalMax time.Duration
	PostDelayMin    time.Duration
	PostDelayMax    time.Duration
	CatchUpDelayMin time.Duration
	CatchUpDelayMax time.Duration
}

// Структура сборщика
type Fetcher struct {
	sources    []Source
	classifier *filter.Classifier
	sent       DedupStore
	buffer     NewsBuffer
	poster     Poster
	status     StatusPublisher
	metrics    *metrics.Metrics
	cfg        Config

	clock  clock.Clock
	jitter *clock.Jitter

	// Время прошлого опроса, от него считаем, какие новости еще свежие
	mu       sync.Mutex
	lastPoll time.Time

	log *slog.Logger
}

func NewFetcher(
	sources []Source,
	classifier *filter.Classifier,
	sent DedupStore,
	buffer NewsBuffer,
	poster Poster,
	status StatusPublisher,
	m *metrics.Metrics,
	cfg Config,
	log *slog.Logger,
) *Fetcher {
	f := &Fetcher{
		sources:    sources,
		classifier: classifier,
		sent:       sent,
		buffer:     buffer,
		poster:     poster,
		status:     status,
		metrics:    m,
		cfg:        cfg,
		log:        log.With("component", "fetcher"),
	}

	return f.WithClock(clock.Real{}, clock.NewJitter(time.Now().UnixNano()))
}

// WithClock подменяет часы и генератор пауз, время старта становится временем "прошлого опроса"
func (f *Fetcher) WithClock(clk clock.Clock, jitter *clock.Jitter) *Fetcher {
	f.clock = clk
	f.jitter = jitter
	f.lastPoll = clk.Now().UTC()
	return f
}

// SourcesFromModels оборачивает ленты из каталога в RSS источники
func SourcesFromModels(feeds []model.Source, timeout time.Duration) []Source {
	sources := make([]Source, 0, len(feeds))
	for _, feed := range feeds {
		sources = append(sources, source.NewRSSSourceFromModel(feed, timeout))
	}
	return sources
}

// Start крутит фоновый опрос, пока не отменят контекст.
// Сначала пауза, потом цикл: стартовый прогон только что отработал
func (f *Fetcher) Start(ctx context.Context) error {
	for {
		f.log.Info("background check started")

		if err := f.clock.Sleep(ctx, f.jitter.Between(f.cfg.PollIntervalMin, f.cfg.PollIntervalMax)); err != nil {
			return err
		}

		f.Poll(ctx)

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Poll - один фоновый цикл. Возвращает число успешно запощенных новостей
func (f *Fetcher) Poll(ctx context.Context) int {
	now := f.clock.Now().UTC()
	cutoff := f.LastPoll().Add(-f.cfg.RecencyGrace)

	var fresh []model.Item
	for _, items := range f.fetchAll(ctx) {
		if len(items) > f.cfg.EntriesPerFeed {
			items = items[:f.cfg.EntriesPerFeed]
		}

		for _, item := range items {
			if f.accept(item, cutoff, now) {
				fresh = append(fresh, item)
			}
		}
	}

	f.setLastPoll(now)

	if len(fresh) == 0 {
		f.log.Info("no new matching news found")
		f.finishCycle(now)
		return 0
	}

	f.log.Info("found new news items", "count", len(fresh))

	if len(fresh) > f.cfg.PostsPerCycle {
		fresh = fresh[:f.cfg.PostsPerCycle]
	}

	posted := 0
	for _, item := range fresh {
		if f.poster.Post(ctx, item) {
			posted++
		}

		if err := f.clock.Sleep(ctx, f.jitter.Between(f.cfg.PostDelayMin, f.cfg.PostDelayMax)); err != nil {
			break
		}
	}

	f.sent.Flush(ctx)

	if posted > 0 {
		if err := f.status.Publish(ctx, notifier.NotificationText(posted)); err != nil {
			f.log.Error("failed to update notification", "error", err)
		}
	}

	f.finishCycle(now)

	return posted
}

// accept отбирает запись в фоновом цикле и сразу помечает ее отправленной
func (f *Fetcher) accept(item model.Item, cutoff, now time.Time) bool {
	verdict := f.classifier.Classify(item, filter.ModeBackground)

	if f.sent.Contains(verdict.Key) {
		f.metrics.IncrementDuplicatesFiltered()
		return false
	}

	// Записи без разобранной даты по свежести не отсеиваем
	if item.PublishedAt != nil && item.PublishedAt.Before(cutoff) {
		f.metrics.IncrementStaleFiltered()
		return false
	}

	if !verdict.Relevant {
		return false
	}

	// Та же новость из другой ленты в этом же цикле
	if !f.sent.Insert(verdict.Key) {
		f.metrics.IncrementDuplicatesFiltered()
		return false
	}

	f.metrics.IncrementItemsMatched()
	f.buffer.Append(newsRecord(item, now))

	return true
}

// CatchUp - стартовый прогон по всем лентам подряд, только ключевые слова.
// Останавливается, как только запостили CatchUpLimit новостей
func (f *Fetcher) CatchUp(ctx context.Context) int {
	f.log.Info("initial fresh news check")

	posted := 0
	for _, src := range f.sources {
		if posted >= f.cfg.CatchUpLimit || ctx.Err() != nil {
			break
		}

		items, err := src.Fetch(ctx)
		if err != nil {
			f.metrics.IncrementFeedErrors()
			f.log.Error("failed to fetch feed", "source", src.Name(), "error", err)
			continue
		}
		f.metrics.IncrementFeedsFetched()

		for _, item := range items {
			verdict := f.classifier.Classify(item, filter.ModeCatchUp)
			if f.sent.Contains(verdict.Key) || !verdict.Relevant {
				continue
			}

			if f.poster.Post(ctx, item) {
				f.sent.Insert(verdict.Key)
				f.sent.Flush(ctx)
				f.buffer.Append(newsRecord(item, f.clock.Now().UTC()))
				f.metrics.IncrementItemsMatched()
				posted++
			}

			if posted >= f.cfg.CatchUpLimit {
				break
			}

			if err := f.clock.Sleep(ctx, f.jitter.Between(f.cfg.CatchUpDelayMin, f.cfg.CatchUpDelayMax)); err != nil {
				f.log.Info("initial check interrupted", "posted", posted)
				return posted
			}
		}
	}

	f.log.Info("initial check completed", "posted", posted)

	return posted
}

func (f *Fetcher) LastPoll() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPoll
}

func (f *Fetcher) setLastPoll(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPoll = t
}

// fetchAll опрашивает источники параллельно. Упавший источник дает пустой результат,
// порядок результатов совпадает с порядком источников
func (f *Fetcher) fetchAll(ctx context.Context) [][]model.Item {
	results := make([][]model.Item, len(f.sources))

	var wg sync.WaitGroup
	for i, src := range f.sources {
		wg.Add(1)

		go func(i int, src Source) {
			defer wg.Done()

			items, err := src.Fetch(ctx)
			if err != nil {
				f.metrics.IncrementFeedErrors()
				f.log.Error("failed to fetch feed", "source", src.Name(), "error", err)
				return
			}

			f.metrics.IncrementFeedsFetched()
			results[i] = items
		}(i, src)
	}

	wg.Wait()

	return results
}

func (f *Fetcher) finishCycle(started time.Time) {
	f.metrics.RecordCycleTime(f.clock.Now().Sub(started))
	f.metrics.SetLastRun(started)
}

func newsRecord(item model.Item, postedAt time.Time) model.NewsRecord {
	return model.NewsRecord{
		Title:       strings.TrimSpace(item.Title),
		Description: strings.TrimSpace(item.Description),
		Source:      item.SourceName,
		Published:   item.Published,
		PostedAt:    postedAt,
	}
}
