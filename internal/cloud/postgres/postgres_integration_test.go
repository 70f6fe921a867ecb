//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/listsync/internal/cloud"
	"github.com/vbonduro/listsync/internal/domain"
	"github.com/vbonduro/listsync/internal/testutil/containers"
)

var _ cloud.Backend = (*Backend)(nil)

func openTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(context.Background(), containers.NewPostgres(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func testRow(id, owner string) cloud.Row {
	now := time.UnixMilli(1700000000000).UTC()
	return cloud.Row{
		ID:         id,
		UserID:     owner,
		Name:       "List " + id,
		CreatedAt:  now,
		UpdatedAt:  now,
		Items:      []domain.ShoppingItem{{ID: "i1", Name: "Milk", CreatedAt: 1, Quantity: 2}},
		Recents:    []string{"Milk"},
		LastWriter: "origin-a",
	}
}

func TestOwnershipRules(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.UpsertOwned(ctx, testRow("l1", "alice")))
	rows, err := b.FetchVisible(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	code := rows[0].ShareCode
	assert.Len(t, code, 8)
	assert.Equal(t, 2, rows[0].Items[0].Quantity)

	err = b.UpsertOwned(ctx, testRow("l1", "bob"))
	assert.ErrorIs(t, err, cloud.ErrForbidden)

	renamed := testRow("l1", "alice")
	renamed.Name = "Renamed"
	require.NoError(t, b.UpsertOwned(ctx, renamed))
	rows, err = b.FetchVisible(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", rows[0].Name)
	assert.Equal(t, code, rows[0].ShareCode, "share code survives upsert")
}

func TestMembershipFlow(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()
	require.NoError(t, b.UpsertOwned(ctx, testRow("l1", "alice")))
	rows, err := b.FetchVisible(ctx, "alice")
	require.NoError(t, err)

	_, err = b.ResolveShareCode(ctx, "NOPE0000")
	assert.ErrorIs(t, err, cloud.ErrNotFound)

	id, err := b.ResolveShareCode(ctx, rows[0].ShareCode)
	require.NoError(t, err)
	require.NoError(t, b.InsertMembership(ctx, id, "bob"))
	assert.ErrorIs(t, b.InsertMembership(ctx, id, "bob"), cloud.ErrConflict)
	assert.ErrorIs(t, b.InsertMembership(ctx, "missing", "bob"), cloud.ErrNotFound)

	patch := cloud.Patch{ID: "l1", Recents: []string{"Tea"}, UpdatedAt: time.Now().UTC(), LastWriter: "origin-b"}
	require.NoError(t, b.UpdateShared(ctx, "bob", patch))
	assert.ErrorIs(t, b.UpdateShared(ctx, "carol", patch), cloud.ErrNotFound)

	visible, err := b.FetchVisible(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, []string{"Tea"}, visible[0].Recents)
	assert.Empty(t, visible[0].Items)

	members, err := b.Memberships(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "bob", members[0].UserID)

	n, err := b.DeleteOwned(ctx, "l1", "bob")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = b.DeleteOwned(ctx, "l1", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	members, err = b.Memberships(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, members, "memberships cascade")
}
