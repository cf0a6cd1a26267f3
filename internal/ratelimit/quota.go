package ratelimit

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kovalyov-valentin/news-digest-bot/internal/clock"
)

var ErrQuotaExceeded = errors.New("daily quota exceeded")

// Quota - суточный лимит обращений к платному внешнему сервису
type Quota struct {
	mu      sync.Mutex
	name    string
	max     int
	used    int
	resetAt time.Time
	clock   clock.Clock
	log     *slog.Logger
}

// max <= 0 означает без ограничений, счетчик все равно ведется
func NewQuota(name string, max int, clk clock.Clock, log *slog.Logger) *Quota {
	return &Quota{
		name:    name,
		max:     max,
		resetAt: clk.Now().Add(24 * time.Hour),
		clock:   clk,
		log:     log.With("quota", name),
	}
}

// Use списывает одно обращение или возвращает ErrQuotaExceeded
func (q *Quota) Use() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.checkReset()

	if q.max > 0 && q.used >= q.max {
		q.log.Warn("quota reached", "used", q.used, "limit", q.max)
		return fmt.Errorf("%s: %w", q.name, ErrQuotaExceeded)
	}

	q.used++
	q.log.Debug("quota used", "used", q.used, "limit", q.max)

	return nil
}

func (q *Quota) Name() string {
	return q.name
}

func (q *Quota) Stats() map[string]interface{} {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.checkReset()

	return map[string]interface{}{
		"used":       q.used,
		"limit":      q.max,
		"reset_time": q.resetAt.Format(time.RFC3339),
	}
}

// checkReset обнуляет счетчик, если сутки прошли
func (q *Quota) checkReset() {
	now := q.clock.Now()
	if now.Before(q.resetAt) {
		return
	}

	q.log.Info("resetting quota", "used", q.used, "limit", q.max)
	q.used = 0
	q.resetAt = now.Add(24 * time.Hour)
}
