package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const bootstrapSchema = `CREATE TABLE IF NOT EXISTS bot_state (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresBackend хранит документы состояния в таблице bot_state (key -> jsonb)
type PostgresBackend struct {
	db *sqlx.DB
}

func NewPostgresBackend(db *sqlx.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// Migrate создает таблицу, если ее еще нет
func (b *PostgresBackend) Migrate(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, bootstrapSchema); err != nil {
		return fmt.Errorf("create bot_state: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Load(ctx context.Context, key string, dst any) error {
	conn, err := b.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	var doc dbStateDoc
	if err := conn.GetContext(ctx, &doc, `SELECT key, value FROM bot_state WHERE key = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("select %s: %w", key, err)
	}

	if err := json.Unmarshal(doc.Value, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	return nil
}

func (b *PostgresBackend) Save(ctx context.Context, key string, src any) error {
	value, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	conn, err := b.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(
		ctx,
		`INSERT INTO bot_state (key, value, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key,
		string(value),
	); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}

	return nil
}

// Внутренняя модель строки таблицы
type dbStateDoc struct {
	Key   string `db:"key"`
	Value []byte `db:"value"`
}
