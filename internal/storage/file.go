package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend хранит каждый документ в отдельном json файле в каталоге dir
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Load(_ context.Context, key string, dst any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	return nil
}

// Save пишет во временный файл и переименовывает его,
// чтобы при падении посреди записи не остаться с обрезанным json
func (b *FileBackend) Save(_ context.Context, key string, src any) error {
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), b.path(key)); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}

	return nil
}
