// Package local implements the device-local list backend: the whole
// collection lives in a single JSON blob.
package local

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/vbonduro/listsync/internal/domain"
	"github.com/vbonduro/listsync/internal/recents"
)

const listsKey = "@shopping_lists_v2"

// Blobs is the key-value storage a local store persists into. Both
// store.BlobStore and store.FileBlobStore satisfy it.
type Blobs interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
}

// Store is the single-device, single-writer list backend. It implements
// storage.Provider and nothing else.
type Store struct {
	blobs  Blobs
	logger *slog.Logger
}

func NewStore(blobs Blobs, logger *slog.Logger) *Store {
	return &Store{blobs: blobs, logger: logger}
}

// LoadLists returns every well-formed list in the blob. A missing or corrupt
// blob reads as an empty collection.
func (s *Store) LoadLists(ctx context.Context) []domain.ShoppingList {
	raw, ok, err := s.blobs.Get(ctx, listsKey)
	if err != nil {
		s.logger.Warn("failed to read local lists", "error", err)
		return []domain.ShoppingList{}
	}
	if !ok || raw == "" {
		return []domain.ShoppingList{}
	}
	return decodeLists([]byte(raw))
}

// SaveLists overwrites the blob. Write failures are logged and dropped.
func (s *Store) SaveLists(ctx context.Context, lists []domain.ShoppingList) {
	normalized := make([]domain.ShoppingList, 0, len(lists))
	for _, l := range lists {
		normalized = append(normalized, normalizeList(l))
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		s.logger.Error("failed to encode local lists", "error", err)
		return
	}
	if err := s.blobs.Put(ctx, listsKey, string(data)); err != nil {
		s.logger.Warn("failed to write local lists", "error", err, "lists", len(lists))
	}
}

func decodeLists(data []byte) []domain.ShoppingList {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return []domain.ShoppingList{}
	}

	lists := make([]domain.ShoppingList, 0, len(entries))
	for _, entry := range entries {
		var fields map[string]any
		if err := json.Unmarshal(entry, &fields); err != nil || !isShoppingList(fields) {
			continue
		}
		var list domain.ShoppingList
		if err := json.Unmarshal(entry, &list); err != nil {
			continue
		}
		lists = append(lists, normalizeList(list))
	}
	return lists
}

func normalizeList(l domain.ShoppingList) domain.ShoppingList {
	l = l.Clone()
	if l.Items == nil {
		l.Items = []domain.ShoppingItem{}
	}
	for i := range l.Items {
		if l.Items[i].Quantity < 1 {
			l.Items[i].Quantity = 1
		}
	}
	l.Recents = recents.Sanitize(l.Recents)
	return l
}

// isShoppingList checks field presence and JSON primitive types before the
// value is trusted to decode into a domain.ShoppingList.
func isShoppingList(v map[string]any) bool {
	if !isString(v["id"]) || !isString(v["name"]) || !isNumber(v["createdAt"]) || !isNumber(v["updatedAt"]) {
		return false
	}
	if !optional(v, "ownerId", isString) || !optional(v, "shareCode", isString) {
		return false
	}

	items, ok := v["items"].([]any)
	if !ok {
		return false
	}
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok || !isShoppingItem(item) {
			return false
		}
	}

	names, ok := v["recents"].([]any)
	if !ok {
		return false
	}
	for _, name := range names {
		if !isString(name) {
			return false
		}
	}
	return true
}

// isShoppingItem accepts items saved before quantities existed; those decode
// with quantity 1.
func isShoppingItem(v map[string]any) bool {
	return isString(v["id"]) &&
		isString(v["name"]) &&
		isBool(v["purchased"]) &&
		isNumber(v["createdAt"]) &&
		optional(v, "quantity", isNumber)
}

func optional(v map[string]any, key string, check func(any) bool) bool {
	val, present := v[key]
	return !present || val == nil || check(val)
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isNumber(v any) bool {
	_, ok := v.(float64)
	return ok
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}
