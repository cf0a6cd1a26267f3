package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// MessageRef помнит id одного "текущего" сообщения в канале:
// последнего статуса или закрепленного дайджеста
type MessageRef struct {
	mu      sync.Mutex
	id      int
	set     bool
	key     string
	field   string
	backend Backend
	log     *slog.Logger
}

// Ссылка на последнее статусное сообщение, {"message_id": 42}
func LoadNotificationRef(ctx context.Context, backend Backend, log *slog.Logger) *MessageRef {
	return loadMessageRef(ctx, backend, log, KeyLastNotification, "message_id")
}

// Ссылка на закрепленный дайджест, {"pinned_message_id": 42}
func LoadPinRef(ctx context.Context, backend Backend, log *slog.Logger) *MessageRef {
	return loadMessageRef(ctx, backend, log, KeyLastPinnedSummary, "pinned_message_id")
}

func loadMessageRef(ctx context.Context, backend Backend, log *slog.Logger, key, field string) *MessageRef {
	r := &MessageRef{
		key:     key,
		field:   field,
		backend: backend,
		log:     log,
	}

	var doc map[string]*int
	if err := backend.Load(ctx, key, &doc); err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn("failed to load message reference", "key", key, "error", err)
		}
		return r
	}

	if id := doc[field]; id != nil {
		r.id, r.set = *id, true
	}

	return r
}

func (r *MessageRef) Get() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.id, r.set
}

// Set запоминает новый id и сохраняет его. При ошибке сохранения
// значение в памяти остается актуальным
func (r *MessageRef) Set(ctx context.Context, id int) {
	r.mu.Lock()
	r.id, r.set = id, true
	r.mu.Unlock()

	if err := r.backend.Save(ctx, r.key, map[string]*int{r.field: &id}); err != nil {
		r.log.Error("failed to save message reference", "key", r.key, "error", err)
	}
}

// SlotLedger хранит дату последнего срабатывания каждого слота дайджеста
type SlotLedger struct {
	mu      sync.Mutex
	dates   map[string]string
	backend Backend
	log     *slog.Logger
}

func LoadSlotLedger(ctx context.Context, backend Backend, log *slog.Logger) *SlotLedger {
	l := &SlotLedger{
		dates:   make(map[string]string),
		backend: backend,
		log:     log,
	}

	var doc map[string]*string
	if err := backend.Load(ctx, KeyLastSentSummaries, &doc); err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn("failed to load digest slots, starting fresh", "error", err)
		}
		return l
	}

	for slot, date := range doc {
		if date != nil {
			l.dates[slot] = *date
		}
	}

	return l
}

// LastFired возвращает дату последнего срабатывания слота или пустую строку
func (l *SlotLedger) LastFired(slot string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.dates[slot]
}

func (l *SlotLedger) MarkFired(ctx context.Context, slot, date string) {
	l.mu.Lock()
	l.dates[slot] = date
	doc := make(map[string]string, len(l.dates))
	for k, v := range l.dates {
		doc[k] = v
	}
	l.mu.Unlock()

	if err := l.backend.Save(ctx, KeyLastSentSummaries, doc); err != nil {
		l.log.Error("failed to save digest slots", "error", err)
	}
}
