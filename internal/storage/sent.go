package storage

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
)

// SentStore - множество ключей уже запощенных новостей.
// Загружается один раз при старте, целиком перезаписывается при Flush
type SentStore struct {
	mu      sync.Mutex
	keys    map[string]struct{}
	backend Backend
	log     *slog.Logger
}

// LoadSentStore никогда не падает: нет документа или он битый - начинаем с пустого множества
func LoadSentStore(ctx context.Context, backend Backend, log *slog.Logger) *SentStore {
	s := &SentStore{
		keys:    make(map[string]struct{}),
		backend: backend,
		log:     log,
	}

	var keys []string
	if err := backend.Load(ctx, KeySentNews, &keys); err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn("failed to load sent news, starting with empty set", "error", err)
		}
		return s
	}

	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	log.Info("sent news loaded", "count", len(s.keys))

	return s
}

func (s *SentStore) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.keys[key]
	return ok
}

// Insert добавляет ключ в память. Возвращает false, если ключ уже был
func (s *SentStore) Insert(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

func (s *SentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.keys)
}

// Flush сохраняет множество целиком. Ошибка только логируется:
// в памяти состояние уже обновлено, следующий Flush попробует еще раз
func (s *SentStore) Flush(ctx context.Context) {
	s.mu.Lock()
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	sort.Strings(keys)

	if err := s.backend.Save(ctx, KeySentNews, keys); err != nil {
		s.log.Error("failed to save sent news", "error", err, "count", len(keys))
	}
}
