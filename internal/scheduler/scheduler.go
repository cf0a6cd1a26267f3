package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kovalyov-valentin/news-digest-bot/internal/clock"
	"github.com/kovalyov-valentin/news-digest-bot/internal/digest"
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
	"github.com/kovalyov-valentin/news-digest-bot/internal/storage"
)

const dateLayout = "2006-01-02"

type Digest interface {
	Publish(ctx context.Context, slot model.Slot) (digest.Result, error)
}

// Slot - время срабатывания дайджеста в локальной зоне
type Slot struct {
	Name   model.Slot
	Hour   int
	Minute int
}

func (s Slot) String() string {
	return fmt.Sprintf("%s@%02d:%02d", s.Name, s.Hour, s.Minute)
}

type Config struct {
	Slots    []Slot
	Location *time.Location
	// Сколько секунд от начала минуты слот считается наступившим
	TriggerWindow time.Duration
	TickMin       time.Duration
	TickMax       time.Duration
}

type Scheduler struct {
	cfg    Config
	ledger *storage.SlotLedger
	digest Digest
	clock  clock.Clock
	jitter *clock.Jitter
	log    *slog.Logger
}

func New(cfg Config, ledger *storage.SlotLedger, digest Digest, log *slog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Scheduler{
		cfg:    cfg,
		ledger: ledger,
		digest: digest,
		clock:  clock.Real{},
		jitter: clock.NewJitter(time.Now().UnixNano()),
		log:    log.With("component", "scheduler"),
	}
}

func (s *Scheduler) WithClock(clk clock.Clock, jitter *clock.Jitter) *Scheduler {
	s.clock = clk
	s.jitter = jitter
	return s
}

// Run проверяет расписание каждые TickMin..TickMax, пока не отменят контекст
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.Tick(ctx)

		if err := s.clock.Sleep(ctx, s.jitter.Between(s.cfg.TickMin, s.cfg.TickMax)); err != nil {
			return err
		}
	}
}

// Tick запускает наступившие слоты, которые сегодня еще не срабатывали.
// Пропущенное окно не догоняем
func (s *Scheduler) Tick(ctx context.Context) []model.Slot {
	now := s.clock.Now().In(s.cfg.Location)
	today := now.Format(dateLayout)

	var fired []model.Slot
	for _, slot := range s.cfg.Slots {
		if !s.due(slot, now) {
			continue
		}

		if s.ledger.LastFired(string(slot.Name)) == today {
			continue
		}

		s.log.Info("starting scheduled summary", "slot", slot.String())

		if _, err := s.digest.Publish(ctx, slot.Name); err != nil {
			s.log.Error("scheduled summary failed", "slot", string(slot.Name), "error", err)
		}

		s.ledger.MarkFired(ctx, string(slot.Name), today)
		fired = append(fired, slot.Name)
	}

	return fired
}

func (s *Scheduler) due(slot Slot, now time.Time) bool {
	start := time.Date(now.Year(), now.Month(), now.Day(), slot.Hour, slot.Minute, 0, 0, now.Location())
	since := now.Sub(start)

	return since >= 0 && since < s.cfg.TriggerWindow
}
