package digest

import (
	"sync"

	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
)

// Buffer копит запощенные новости до ближайшего дайджеста. Живет только в памяти
type Buffer struct {
	mu      sync.Mutex
	records []model.NewsRecord
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Append(record model.NewsRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, record)
}

// Snapshot возвращает копию текущего содержимого
func (b *Buffer) Snapshot() []model.NewsRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.NewsRecord(nil), b.records...)
}

// Discard выкидывает n самых старых записей. То, что добавили после снимка, остается
func (b *Buffer) Discard(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n >= len(b.records) {
		b.records = nil
		return
	}
	if n > 0 {
		b.records = append([]model.NewsRecord(nil), b.records[n:]...)
	}
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}
