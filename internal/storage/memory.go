package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryBackend держит документы в памяти. Используется в тестах и в разовых командах cli
type MemoryBackend struct {
	mu   sync.Mutex
	docs map[string][]byte
	// Если задана, Save возвращает эту ошибку
	SaveErr error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (b *MemoryBackend) Load(_ context.Context, key string, dst any) error {
	b.mu.Lock()
	data, ok := b.docs[key]
	b.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	return json.Unmarshal(data, dst)
}

func (b *MemoryBackend) Save(_ context.Context, key string, src any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.SaveErr != nil {
		return b.SaveErr
	}

	data, err := json.Marshal(src)
	if err != nil {
		return err
	}

	b.docs[key] = data
	return nil
}

// Raw возвращает сохраненный документ как есть
func (b *MemoryBackend) Raw(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.docs[key]
	return data, ok
}

// Put кладет документ как есть, например битый json
func (b *MemoryBackend) Put(key string, raw []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.docs[key] = raw
}
