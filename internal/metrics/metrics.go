package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedsFetched       int64
	FeedErrors         int64
	ItemsMatched       int64
	DuplicatesFiltered int64
	StaleFiltered      int64
	NewsPosted         int64
	PostFailures       int64
	FallbackPosts      int64
	ImagesGenerated    int64
	DigestsPublished   int64
	DigestFailures     int64

	// Timings
	LastCycleTime    time.Duration
	AverageCycleTime time.Duration
	TotalCycleTime   time.Duration
	CycleCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) add(counter *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter++
}

func (m *Metrics) IncrementFeedsFetched()       { m.add(&m.FeedsFetched) }
func (m *Metrics) IncrementFeedErrors()         { m.add(&m.FeedErrors) }
func (m *Metrics) IncrementItemsMatched()       { m.add(&m.ItemsMatched) }
func (m *Metrics) IncrementDuplicatesFiltered() { m.add(&m.DuplicatesFiltered) }
func (m *Metrics) IncrementStaleFiltered()      { m.add(&m.StaleFiltered) }
func (m *Metrics) IncrementNewsPosted()         { m.add(&m.NewsPosted) }
func (m *Metrics) IncrementPostFailures()       { m.add(&m.PostFailures) }
func (m *Metrics) IncrementFallbackPosts()      { m.add(&m.FallbackPosts) }
func (m *Metrics) IncrementImagesGenerated()    { m.add(&m.ImagesGenerated) }
func (m *Metrics) IncrementDigestsPublished()   { m.add(&m.DigestsPublished) }
func (m *Metrics) IncrementDigestFailures()     { m.add(&m.DigestFailures) }

func (m *Metrics) RecordCycleTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastCycleTime = duration
	m.TotalCycleTime += duration
	m.CycleCount++

	if m.CycleCount > 0 {
		m.AverageCycleTime = m.TotalCycleTime / time.Duration(m.CycleCount)
	}
}

func (m *Metrics) SetLastRun(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = at
	m.IsHealthy = true
}

func (m *Metrics) SetError(at time.Time, err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = at
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"feeds_fetched":         m.FeedsFetched,
		"feed_errors":           m.FeedErrors,
		"items_matched":         m.ItemsMatched,
		"duplicates_filtered":   m.DuplicatesFiltered,
		"stale_filtered":        m.StaleFiltered,
		"news_posted":           m.NewsPosted,
		"post_failures":         m.PostFailures,
		"fallback_posts":        m.FallbackPosts,
		"images_generated":      m.ImagesGenerated,
		"digests_published":     m.DigestsPublished,
		"digest_failures":       m.DigestFailures,
		"last_cycle_time_ms":    m.LastCycleTime.Milliseconds(),
		"average_cycle_time_ms": m.AverageCycleTime.Milliseconds(),
		"last_run_time":         formatTime(m.LastRunTime),
		"last_error_time":       formatTime(m.LastErrorTime),
		"last_error":            m.LastError,
		"is_healthy":            m.IsHealthy,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
