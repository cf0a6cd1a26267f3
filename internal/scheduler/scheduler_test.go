package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovalyov-valentin/news-digest-bot/internal/clock"
	"github.com/kovalyov-valentin/news-digest-bot/internal/digest"
	"github.com/kovalyov-valentin/news-digest-bot/internal/logger"
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
	"github.com/kovalyov-valentin/news-digest-bot/internal/storage"
)

var bangkok = time.FixedZone("ICT", 7*60*60)

var slots = []Slot{
	{Name: model.SlotMorning, Hour: 7, Minute: 30},
	{Name: model.SlotNoon, Hour: 12, Minute: 45},
	{Name: model.SlotEvening, Hour: 20, Minute: 0},
}

type fakeDigest struct {
	slots []model.Slot
	err   error
}

func (f *fakeDigest) Publish(_ context.Context, slot model.Slot) (digest.Result, error) {
	f.slots = append(f.slots, slot)
	return digest.Result{}, f.err
}

type env struct {
	sched   *Scheduler
	clock   *clock.Manual
	digest  *fakeDigest
	backend *storage.MemoryBackend
}

func newEnv(t *testing.T, start time.Time) *env {
	t.Helper()

	log := logger.Discard()
	backend := storage.NewMemoryBackend()
	clk := clock.NewManual(start)
	d := &fakeDigest{}

	s := New(Config{
		Slots:         slots,
		Location:      bangkok,
		TriggerWindow: 30 * time.Second,
		TickMin:       20 * time.Second,
		TickMax:       25 * time.Second,
	}, storage.LoadSlotLedger(context.Background(), backend, log), d, log).
		WithClock(clk, clock.NewJitter(3))

	return &env{sched: s, clock: clk, digest: d, backend: backend}
}

func TestTick_FiresOncePerDay(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, time.Date(2026, 10, 16, 7, 30, 5, 0, bangkok))

	assert.Equal(t, []model.Slot{model.SlotMorning}, e.sched.Tick(ctx))

	e.clock.Set(time.Date(2026, 10, 16, 7, 30, 20, 0, bangkok))
	assert.Empty(t, e.sched.Tick(ctx))

	assert.Equal(t, []model.Slot{model.SlotMorning}, e.digest.slots)

	// Дата срабатывания сохранена и переживает перезапуск
	ledger := storage.LoadSlotLedger(ctx, e.backend, logger.Discard())
	assert.Equal(t, "2026-10-16", ledger.LastFired("morning"))
}

func TestTick_OutsideWindow(t *testing.T) {
	ctx := context.Background()

	for _, at := range []time.Time{
		time.Date(2026, 10, 16, 7, 29, 59, 0, bangkok),
		time.Date(2026, 10, 16, 7, 30, 30, 0, bangkok),
		time.Date(2026, 10, 16, 12, 46, 0, 0, bangkok),
	} {
		e := newEnv(t, at)
		assert.Empty(t, e.sched.Tick(ctx), at.String())
	}
}

func TestTick_UsesConfiguredZone(t *testing.T) {
	// 13:00 UTC = 20:00 по Бангкоку
	e := newEnv(t, time.Date(2026, 10, 16, 13, 0, 10, 0, time.UTC))
	assert.Equal(t, []model.Slot{model.SlotEvening}, e.sched.Tick(context.Background()))
}

func TestTick_NextDayFiresAgain(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, time.Date(2026, 10, 16, 12, 45, 1, 0, bangkok))

	require.Len(t, e.sched.Tick(ctx), 1)

	e.clock.Set(time.Date(2026, 10, 17, 12, 45, 1, 0, bangkok))
	require.Len(t, e.sched.Tick(ctx), 1)

	assert.Equal(t, []model.Slot{model.SlotNoon, model.SlotNoon}, e.digest.slots)
}

func TestTick_FailedDigestStillMarksSlot(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, time.Date(2026, 10, 16, 20, 0, 0, 0, bangkok))
	e.digest.err = errors.New("telegram down")

	require.Len(t, e.sched.Tick(ctx), 1)

	e.clock.Advance(10 * time.Second)
	assert.Empty(t, e.sched.Tick(ctx))
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	e := newEnv(t, time.Date(2026, 10, 16, 7, 29, 40, 0, bangkok))

	ctx, cancel := context.WithCancel(context.Background())
	ticks := 0
	e.clock.OnSleep(func(now time.Time) {
		ticks++
		if now.After(time.Date(2026, 10, 16, 7, 32, 0, 0, bangkok)) {
			cancel()
		}
	})

	err := e.sched.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// Шаг 20-25 секунд меньше окна, поэтому слот не пропущен и сработал один раз
	assert.Equal(t, []model.Slot{model.SlotMorning}, e.digest.slots)
	assert.Greater(t, ticks, 3)

	for _, d := range e.clock.Slept() {
		assert.GreaterOrEqual(t, d, 20*time.Second)
		assert.LessOrEqual(t, d, 25*time.Second)
	}
}
