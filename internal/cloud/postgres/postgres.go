// Package postgres is the production cloud.Backend. Ownership and
// membership rules are enforced in the SQL itself, and row triggers feed
// the NOTIFY channel read by realtime/pgfeed.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"github.com/vbonduro/listsync/internal/cloud"
	"github.com/vbonduro/listsync/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type Backend struct {
	db *sql.DB
}

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Backend{db: db}, nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create iofs source: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (b *Backend) FetchVisible(ctx context.Context, userID string) ([]cloud.Row, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, user_id, name, created_at, updated_at, items, recents, share_code, last_writer
		FROM lists
		WHERE user_id = $1
		   OR id IN (SELECT list_id FROM list_members WHERE user_id = $1)
		ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []cloud.Row
	for rows.Next() {
		var (
			r              cloud.Row
			items, recents []byte
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.CreatedAt, &r.UpdatedAt, &items, &recents, &r.ShareCode, &r.LastWriter); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		if err := json.Unmarshal(items, &r.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items of list %s: %w", r.ID, err)
		}
		if err := json.Unmarshal(recents, &r.Recents); err != nil {
			return nil, fmt.Errorf("failed to decode recents of list %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lists: %w", err)
	}
	return out, nil
}

func (b *Backend) UpsertOwned(ctx context.Context, row cloud.Row) error {
	items, recents, err := encodeJSON(row.Items, row.Recents)
	if err != nil {
		return err
	}

	// The WHERE clause turns an upsert over someone else's row into a no-op.
	res, err := b.db.ExecContext(ctx, `
		INSERT INTO lists (id, user_id, name, created_at, updated_at, items, recents, last_writer)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = EXCLUDED.updated_at,
			items = EXCLUDED.items,
			recents = EXCLUDED.recents,
			last_writer = EXCLUDED.last_writer
		WHERE lists.user_id = EXCLUDED.user_id`,
		row.ID, row.UserID, row.Name, row.CreatedAt, row.UpdatedAt, items, recents, row.LastWriter)
	if err != nil {
		return fmt.Errorf("failed to upsert list: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read upsert result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("list %s: %w", row.ID, cloud.ErrForbidden)
	}
	return nil
}

func (b *Backend) UpdateShared(ctx context.Context, userID string, patch cloud.Patch) error {
	items, recents, err := encodeJSON(patch.Items, patch.Recents)
	if err != nil {
		return err
	}

	res, err := b.db.ExecContext(ctx, `
		UPDATE lists
		SET items = $3::jsonb, recents = $4::jsonb, updated_at = $5, last_writer = $6
		WHERE id = $1
		  AND EXISTS (SELECT 1 FROM list_members m WHERE m.list_id = lists.id AND m.user_id = $2)`,
		patch.ID, userID, items, recents, patch.UpdatedAt, patch.LastWriter)
	if err != nil {
		return fmt.Errorf("failed to update shared list: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("list %s: %w", patch.ID, cloud.ErrNotFound)
	}
	return nil
}

// ResolveShareCode is the one lookup not scoped to the caller.
func (b *Backend) ResolveShareCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", cloud.ErrNotFound
	}
	var id string
	err := b.db.QueryRowContext(ctx, `SELECT id FROM lists WHERE share_code = upper($1)`, code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", cloud.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve share code: %w", err)
	}
	return id, nil
}

func (b *Backend) InsertMembership(ctx context.Context, listID, userID string) error {
	_, err := b.db.ExecContext(ctx, `INSERT INTO list_members (list_id, user_id) VALUES ($1, $2)`, listID, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case uniqueViolation:
				return fmt.Errorf("membership exists: %w", cloud.ErrConflict)
			case foreignKeyViolation:
				return fmt.Errorf("list %s: %w", listID, cloud.ErrNotFound)
			}
		}
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

func (b *Backend) DeleteMembership(ctx context.Context, listID, userID string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM list_members WHERE list_id = $1 AND user_id = $2`, listID, userID); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

func (b *Backend) DeleteOwned(ctx context.Context, listID, userID string) (int64, error) {
	res, err := b.db.ExecContext(ctx, `DELETE FROM lists WHERE id = $1 AND user_id = $2`, listID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete list: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n, nil
}

// Memberships lists the members of listID.
func (b *Backend) Memberships(ctx context.Context, listID string) ([]domain.Membership, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT list_id, user_id, created_at FROM list_members
		WHERE list_id = $1 ORDER BY user_id`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ListID, &m.UserID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func encodeJSON(items []domain.ShoppingItem, recents []string) (string, string, error) {
	if items == nil {
		items = []domain.ShoppingItem{}
	}
	if recents == nil {
		recents = []string{}
	}
	i, err := json.Marshal(items)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode items: %w", err)
	}
	r, err := json.Marshal(recents)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode recents: %w", err)
	}
	return string(i), string(r), nil
}
