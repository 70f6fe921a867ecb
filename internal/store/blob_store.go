package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// BlobStore is a key-value table in the device-local SQLite database.
type BlobStore struct {
	db *sql.DB
}

func NewBlobStore(db *sql.DB) *BlobStore {
	return &BlobStore{db: db}
}

// Get returns the value stored under key. ok is false when the key is absent.
func (s *BlobStore) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT value FROM blobs WHERE key = ?
	`, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get blob %q: %w", key, err)
	}
	return value, true, nil
}

// Put overwrites the value stored under key.
func (s *BlobStore) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to put blob %q: %w", key, err)
	}
	return nil
}
