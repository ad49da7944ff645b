package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ
)`

// Tables created before keys could expire lack the column.
const postgresAddExpiresAt = `ALTER TABLE kv_store ADD COLUMN IF NOT EXISTS expires_at TIMESTAMPTZ`

type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend creates kv_store if needed. The backend takes
// ownership of the pool.
func NewPostgresBackend(ctx context.Context, pool *pgxpool.Pool) (*PostgresBackend, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("migrate kv_store: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresAddExpiresAt); err != nil {
		return nil, fmt.Errorf("add expires_at: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := b.pool.QueryRow(ctx,
		`SELECT value FROM kv_store WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), nil
}

func (b *PostgresBackend) Commit(ctx context.Context, writes []Write) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	for _, w := range writes {
		if w.Delete {
			if _, err := tx.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, w.Key); err != nil {
				return fmt.Errorf("delete %s: %w", w.Key, err)
			}
			continue
		}
		var expiresAt *time.Time
		if w.TTL > 0 {
			at := time.Now().Add(w.TTL)
			expiresAt = &at
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO kv_store (key, value, updated_at, expires_at) VALUES ($1, $2, NOW(), $3)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW(),
			 expires_at = EXCLUDED.expires_at`,
			w.Key, string(w.Value), expiresAt,
		)
		if err != nil {
			return fmt.Errorf("put %s: %w", w.Key, err)
		}
	}
	return tx.Commit(ctx)
}

// Sweep deletes expired rows.
func (b *PostgresBackend) Sweep(ctx context.Context) (int64, error) {
	tag, err := b.pool.Exec(ctx, `DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("sweep expired keys: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
