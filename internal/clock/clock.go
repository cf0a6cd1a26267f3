// Package clock abstracts wall time so background loops can be driven by tests.
package clock

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Manual is a clock that only moves when Sleep or Advance is called.
// Sleep returns immediately after advancing the time by d.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	slept  []time.Duration
	onStep func(now time.Time)
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.now = m.now.Add(d)
	m.slept = append(m.slept, d)
	hook, now := m.onStep, m.now
	m.mu.Unlock()

	if hook != nil {
		hook(now)
	}

	return ctx.Err()
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Slept returns every duration passed to Sleep so far.
func (m *Manual) Slept() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.slept...)
}

// OnSleep registers a hook called after every Sleep with the new time.
func (m *Manual) OnSleep(fn func(now time.Time)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStep = fn
}

// Jitter picks a uniformly distributed duration in [min, max].
type Jitter struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewJitter(seed int64) *Jitter {
	return &Jitter{rnd: rand.New(rand.NewSource(seed))}
}

func (j *Jitter) Between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	return min + time.Duration(j.rnd.Int63n(int64(max-min)+1))
}
