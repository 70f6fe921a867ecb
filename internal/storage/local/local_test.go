package local

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/listsync/internal/db"
	"github.com/vbonduro/listsync/internal/domain"
	"github.com/vbonduro/listsync/internal/recents"
	"github.com/vbonduro/listsync/internal/storage"
	"github.com/vbonduro/listsync/internal/store"
)

var _ storage.Provider = (*Store)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBlobs(t *testing.T) *store.BlobStore {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return store.NewBlobStore(d)
}

// failingBlobs errors on every call.
type failingBlobs struct{}

func (failingBlobs) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk unavailable")
}

func (failingBlobs) Put(context.Context, string, string) error {
	return errors.New("disk full")
}

func sampleList() domain.ShoppingList {
	return domain.ShoppingList{
		ID:        "list-1",
		Name:      "Groceries",
		CreatedAt: 1700000000000,
		UpdatedAt: 1700000005000,
		Items: []domain.ShoppingItem{
			{ID: "i1", Name: "Milk", Purchased: false, CreatedAt: 1700000001000, Quantity: 2},
			{ID: "i2", Name: "Eggs", Purchased: true, CreatedAt: 1700000002000, Quantity: 1},
		},
		Recents:   []string{"Milk", "Eggs", "Milk"},
		OwnerID:   "user-1",
		ShareCode: "ABCD1234",
	}
}

func TestLoadListsEmptyWhenMissing(t *testing.T) {
	s := NewStore(newTestBlobs(t), discardLogger())

	lists := s.LoadLists(context.Background())
	assert.NotNil(t, lists)
	assert.Empty(t, lists)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	s := NewStore(newTestBlobs(t), discardLogger())
	ctx := context.Background()
	list := sampleList()

	s.SaveLists(ctx, []domain.ShoppingList{list})
	loaded := s.LoadLists(ctx)

	want := list.Clone()
	want.Recents = recents.Sanitize(list.Recents)
	require.Len(t, loaded, 1)
	assert.Equal(t, want, loaded[0])
}

func TestLoadListsCorruptBlob(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "not json", blob: "{{{not json"},
		{name: "object instead of array", blob: `{"id":"x"}`},
		{name: "number", blob: `42`},
		{name: "null", blob: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blobs := newTestBlobs(t)
			require.NoError(t, blobs.Put(context.Background(), listsKey, tt.blob))

			lists := NewStore(blobs, discardLogger()).LoadLists(context.Background())
			assert.Empty(t, lists)
		})
	}
}

func TestLoadListsFiltersMalformedEntries(t *testing.T) {
	blobs := newTestBlobs(t)
	blob := `[
		{"id":"ok","name":"Good","createdAt":1,"updatedAt":2,"items":[],"recents":["a","a"]},
		{"id":"no-name","createdAt":1,"updatedAt":2,"items":[],"recents":[]},
		{"id":5,"name":"Numeric id","createdAt":1,"updatedAt":2,"items":[],"recents":[]},
		{"id":"bad-item","name":"Bad item","createdAt":1,"updatedAt":2,"items":[{"id":"i","name":"x","purchased":"no","createdAt":1}],"recents":[]},
		{"id":"bad-recent","name":"Bad recent","createdAt":1,"updatedAt":2,"items":[],"recents":[1]},
		{"id":"bad-owner","name":"Bad owner","createdAt":1,"updatedAt":2,"items":[],"recents":[],"ownerId":7},
		"just a string",
		{"id":"legacy","name":"Legacy","createdAt":1,"updatedAt":2,"items":[{"id":"i","name":"Tea","purchased":false,"createdAt":1}],"recents":[]}
	]`
	require.NoError(t, blobs.Put(context.Background(), listsKey, blob))

	lists := NewStore(blobs, discardLogger()).LoadLists(context.Background())

	require.Len(t, lists, 2)
	assert.Equal(t, "ok", lists[0].ID)
	assert.Equal(t, []string{"a"}, lists[0].Recents)
	assert.Equal(t, "legacy", lists[1].ID)
	assert.Equal(t, 1, lists[1].Items[0].Quantity, "items without quantity default to one")
}

func TestSaveListsSanitizesRecents(t *testing.T) {
	blobs := newTestBlobs(t)
	s := NewStore(blobs, discardLogger())
	list := sampleList()
	list.Recents = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "a"}

	s.SaveLists(context.Background(), []domain.ShoppingList{list})

	raw, ok, err := blobs.Get(context.Background(), listsKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, `"m"`)
}

func TestFailuresNeverEscape(t *testing.T) {
	s := NewStore(failingBlobs{}, discardLogger())

	assert.NotPanics(t, func() {
		s.SaveLists(context.Background(), []domain.ShoppingList{sampleList()})
	})
	assert.Empty(t, s.LoadLists(context.Background()))
}

func TestSaveEmptyClears(t *testing.T) {
	s := NewStore(newTestBlobs(t), discardLogger())
	ctx := context.Background()

	s.SaveLists(ctx, []domain.ShoppingList{sampleList()})
	s.SaveLists(ctx, nil)

	assert.Empty(t, s.LoadLists(ctx))
}
