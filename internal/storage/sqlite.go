package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME DEFAULT (datetime('now')),
    expires_at INTEGER
);`

// SQLiteBackend stores every key as one row of kv_store. expires_at holds
// unix seconds, NULL for keys that never expire.
type SQLiteBackend struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (and migrates) a SQLite database.
// dsn is a file path, "file:brioso.db?mode=rwc" or ":memory:".
func OpenSQLite(dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection: a :memory: database exists per connection, and
	// writes are serialized by the Store anyway
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	if err := addExpiresAt(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteBackend{db: db, now: time.Now}, nil
}

// addExpiresAt upgrades databases created before keys could expire.
func addExpiresAt(db *sql.DB) error {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('kv_store') WHERE name = 'expires_at'`).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect kv_store: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.Exec(`ALTER TABLE kv_store ADD COLUMN expires_at INTEGER`); err != nil {
		return fmt.Errorf("add expires_at: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, b.now().Unix(),
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), nil
}

func (b *SQLiteBackend) Commit(ctx context.Context, writes []Write) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, w := range writes {
		if w.Delete {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, w.Key); err != nil {
				return fmt.Errorf("delete %s: %w", w.Key, err)
			}
			continue
		}
		var expiresAt sql.NullInt64
		if w.TTL > 0 {
			expiresAt = sql.NullInt64{Int64: b.now().Add(w.TTL).Unix(), Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv_store (key, value, updated_at, expires_at) VALUES (?, ?, datetime('now'), ?)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at,
			 expires_at = excluded.expires_at`,
			w.Key, string(w.Value), expiresAt,
		)
		if err != nil {
			return fmt.Errorf("put %s: %w", w.Key, err)
		}
	}
	return tx.Commit()
}

// Sweep deletes expired rows.
func (b *SQLiteBackend) Sweep(ctx context.Context) (int64, error) {
	res, err := b.db.ExecContext(ctx,
		`DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at <= ?`, b.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("sweep expired keys: %w", err)
	}
	return res.RowsAffected()
}

func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
