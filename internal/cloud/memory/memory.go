// Package memory is an in-process cloud.Backend with the same access rules
// as the Postgres backend. It backs tests and single-process dev mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/listsync/internal/cloud"
	"github.com/vbonduro/listsync/internal/domain"
)

type Backend struct {
	mu      sync.Mutex
	rows    map[string]cloud.Row
	members map[string]map[string]time.Time
	now     func() time.Time
}

func New() *Backend {
	return &Backend{
		rows:    make(map[string]cloud.Row),
		members: make(map[string]map[string]time.Time),
		now:     time.Now,
	}
}

func (b *Backend) FetchVisible(_ context.Context, userID string) ([]cloud.Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []cloud.Row
	for id, row := range b.rows {
		if _, member := b.members[id][userID]; row.UserID == userID || member {
			out = append(out, cloneRow(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (b *Backend) UpsertOwned(_ context.Context, row cloud.Row) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, ok := b.rows[row.ID]
	if ok {
		if existing.UserID != row.UserID {
			return cloud.ErrForbidden
		}
		existing.Name = row.Name
		existing.UpdatedAt = row.UpdatedAt
		existing.Items = cloneItems(row.Items)
		existing.Recents = append([]string(nil), row.Recents...)
		existing.LastWriter = row.LastWriter
		b.rows[row.ID] = existing
		return nil
	}

	stored := cloneRow(row)
	stored.ShareCode = b.newShareCodeLocked()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = b.now()
	}
	b.rows[row.ID] = stored
	return nil
}

func (b *Backend) UpdateShared(_ context.Context, userID string, patch cloud.Patch) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.rows[patch.ID]
	if !ok {
		return cloud.ErrNotFound
	}
	if _, member := b.members[patch.ID][userID]; !member {
		return cloud.ErrNotFound
	}
	row.Items = cloneItems(patch.Items)
	row.Recents = append([]string(nil), patch.Recents...)
	row.UpdatedAt = patch.UpdatedAt
	row.LastWriter = patch.LastWriter
	b.rows[patch.ID] = row
	return nil
}

func (b *Backend) ResolveShareCode(_ context.Context, code string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, row := range b.rows {
		if code != "" && strings.EqualFold(row.ShareCode, code) {
			return id, nil
		}
	}
	return "", cloud.ErrNotFound
}

func (b *Backend) InsertMembership(_ context.Context, listID, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.rows[listID]; !ok {
		return cloud.ErrNotFound
	}
	members, ok := b.members[listID]
	if !ok {
		members = make(map[string]time.Time)
		b.members[listID] = members
	}
	if _, exists := members[userID]; exists {
		return cloud.ErrConflict
	}
	members[userID] = b.now()
	return nil
}

func (b *Backend) DeleteMembership(_ context.Context, listID, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.members[listID], userID)
	return nil
}

func (b *Backend) DeleteOwned(_ context.Context, listID, userID string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.rows[listID]
	if !ok || row.UserID != userID {
		return 0, nil
	}
	delete(b.rows, listID)
	delete(b.members, listID)
	return 1, nil
}

// Memberships lists the members of listID.
func (b *Backend) Memberships(listID string) []domain.Membership {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.Membership, 0, len(b.members[listID]))
	for userID, at := range b.members[listID] {
		out = append(out, domain.Membership{ListID: listID, UserID: userID, CreatedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Row returns the stored row for id.
func (b *Backend) Row(id string) (cloud.Row, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	row, ok := b.rows[id]
	return cloneRow(row), ok
}

func (b *Backend) newShareCodeLocked() string {
	for {
		code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		taken := false
		for _, row := range b.rows {
			if row.ShareCode == code {
				taken = true
				break
			}
		}
		if !taken {
			return code
		}
	}
}

func cloneRow(r cloud.Row) cloud.Row {
	r.Items = cloneItems(r.Items)
	if r.Recents != nil {
		r.Recents = append([]string(nil), r.Recents...)
	}
	return r
}

func cloneItems(items []domain.ShoppingItem) []domain.ShoppingItem {
	if items == nil {
		return nil
	}
	return append([]domain.ShoppingItem(nil), items...)
}
