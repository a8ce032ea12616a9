package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const DefaultMaxRowBytes = 2 << 20

var _ Store = (*KVStore)(nil)

type KVStore struct {
	db          *DB
	maxRowBytes int
}

// NewKVStore returns a store over the kv table. A non-positive maxRowBytes
// uses DefaultMaxRowBytes.
func NewKVStore(db *DB, maxRowBytes int) *KVStore {
	if maxRowBytes <= 0 {
		maxRowBytes = DefaultMaxRowBytes
	}
	return &KVStore{db: db, maxRowBytes: maxRowBytes}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if len(value) > s.maxRowBytes {
		return fmt.Errorf("failed to set key %s (%d bytes): %w", key, len(value), ErrRowTooBig)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		if isTooBig(err) {
			return fmt.Errorf("failed to set key %s: %w", key, ErrRowTooBig)
		}
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func isTooBig(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_TOOBIG {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "too big")
}
