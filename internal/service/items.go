package service

import (
	"context"
	"errors"
	"strings"

	"github.com/vbonduro/listsync/internal/domain"
	"github.com/vbonduro/listsync/internal/recents"
)

var (
	ErrListNotFound = errors.New("list not found")
	// ErrNoCurrentList is returned by item operations when no list is open.
	ErrNoCurrentList = errors.New("no list is open")
)

type overlayState struct {
	open     bool
	input    string
	selected []domain.SelectedRecentItem
}

// mergeIntoActive adds qty to the unpurchased item named name. Purchased
// items never match.
func mergeIntoActive(items []domain.ShoppingItem, name string, qty int) bool {
	normalized := domain.NormalizeName(name)
	for i := range items {
		if !items[i].Purchased && domain.NormalizeName(items[i].Name) == normalized {
			items[i].Quantity += qty
			return true
		}
	}
	return false
}

// addItemsLocked merges each entry into a matching active item or prepends
// a new row. Callers hold a.mu and have checked idx.
func (a *ListApp) addItemsLocked(idx int, entries []domain.SelectedRecentItem) {
	ts := a.now().UnixMilli()
	a.updateListByID(a.lists[idx].ID, func(l *domain.ShoppingList) {
		items := append([]domain.ShoppingItem(nil), l.Items...)
		var added []domain.ShoppingItem
		for i, e := range entries {
			name := strings.TrimSpace(e.Name)
			if name == "" {
				continue
			}
			qty := max(e.Quantity, 1)
			if mergeIntoActive(items, name, qty) {
				continue
			}
			added = append(added, domain.ShoppingItem{
				ID:        a.newID(),
				Name:      name,
				CreatedAt: ts + int64(i),
				Quantity:  qty,
			})
		}
		l.Items = append(append([]domain.ShoppingItem{}, added...), items...)
	})
}

// withCurrentList runs fn on the open list and saves when fn reports a
// change.
func (a *ListApp) withCurrentList(ctx context.Context, fn func(idx int) bool) error {
	a.mu.Lock()
	idx := a.currentLocked()
	if idx < 0 {
		a.mu.Unlock()
		return ErrNoCurrentList
	}
	if !fn(idx) {
		a.mu.Unlock()
		return nil
	}
	save := a.commitLocked()
	a.mu.Unlock()

	a.persist(ctx, save)
	return nil
}

// updateItem applies fn to one item of the open list.
func (a *ListApp) updateItem(ctx context.Context, itemID string, fn func(*domain.ShoppingItem)) error {
	return a.withCurrentList(ctx, func(idx int) bool {
		if !hasItem(a.lists[idx].Items, itemID) {
			return false
		}
		a.updateListByID(a.lists[idx].ID, func(l *domain.ShoppingList) {
			items := append([]domain.ShoppingItem(nil), l.Items...)
			for i := range items {
				if items[i].ID == itemID {
					fn(&items[i])
				}
			}
			l.Items = items
		})
		return true
	})
}

func (a *ListApp) OpenOverlay() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.currentLocked() < 0 {
		return ErrNoCurrentList
	}
	a.overlay = overlayState{open: true}
	return nil
}

func (a *ListApp) CloseOverlay() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.overlay = overlayState{}
}

func (a *ListApp) SetOverlayInput(value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.overlay.input = value
}

// OverlayAdd handles the typed name. A match against an active item bumps
// its quantity; otherwise the name is staged for AddSelected and moved to
// the front of recents.
func (a *ListApp) OverlayAdd(ctx context.Context) error {
	return a.withCurrentList(ctx, func(idx int) bool {
		name := strings.TrimSpace(a.overlay.input)
		if name == "" {
			return false
		}
		a.overlay.input = ""

		if hasActive(a.lists[idx].Items, name) {
			a.updateListByID(a.lists[idx].ID, func(l *domain.ShoppingList) {
				items := append([]domain.ShoppingItem(nil), l.Items...)
				mergeIntoActive(items, name, 1)
				l.Items = items
			})
			return true
		}

		a.overlay.selected = stage(a.overlay.selected, domain.SelectedRecentItem{Name: name, Quantity: 1})
		a.updateListByID(a.lists[idx].ID, func(l *domain.ShoppingList) {
			l.Recents = recents.Push(l.Recents, name)
		})
		return true
	})
}

// AddSelected adds every staged item to the open list and closes the overlay.
func (a *ListApp) AddSelected(ctx context.Context) error {
	return a.withCurrentList(ctx, func(idx int) bool {
		if len(a.overlay.selected) == 0 {
			return false
		}
		a.addItemsLocked(idx, a.overlay.selected)
		a.overlay = overlayState{}
		return true
	})
}

// AddMultipleSelected stages items, merging names already staged.
func (a *ListApp) AddMultipleSelected(items []domain.SelectedRecentItem) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		item.Quantity = max(item.Quantity, 1)
		a.overlay.selected = stage(a.overlay.selected, item)
	}
}

// QuickAddMultiple adds items straight to the open list and closes the overlay.
func (a *ListApp) QuickAddMultiple(ctx context.Context, items []domain.SelectedRecentItem) error {
	return a.withCurrentList(ctx, func(idx int) bool {
		if len(items) == 0 {
			return false
		}
		a.addItemsLocked(idx, items)
		a.overlay = overlayState{}
		return true
	})
}

// ToggleRecent stages or unstages a recent name.
func (a *ListApp) ToggleRecent(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, s := range a.overlay.selected {
		if s.Name == name {
			a.overlay.selected = append(a.overlay.selected[:i:i], a.overlay.selected[i+1:]...)
			return
		}
	}
	a.overlay.selected = append(a.overlay.selected, domain.SelectedRecentItem{Name: name, Quantity: 1})
}

// UpdateRecentQuantity changes a staged quantity by delta, never below one.
func (a *ListApp) UpdateRecentQuantity(name string, delta int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.overlay.selected {
		if a.overlay.selected[i].Name == name {
			a.overlay.selected[i].Quantity = max(1, a.overlay.selected[i].Quantity+delta)
		}
	}
}

func (a *ListApp) ClearRecents(ctx context.Context) error {
	return a.withCurrentList(ctx, func(idx int) bool {
		a.updateListByID(a.lists[idx].ID, func(l *domain.ShoppingList) { l.Recents = []string{} })
		a.overlay.selected = nil
		return true
	})
}

func (a *ListApp) ToggleItem(ctx context.Context, itemID string) error {
	return a.updateItem(ctx, itemID, func(item *domain.ShoppingItem) { item.Purchased = !item.Purchased })
}

func (a *ListApp) IncrementQuantity(ctx context.Context, itemID string) error {
	return a.updateItem(ctx, itemID, func(item *domain.ShoppingItem) { item.Quantity++ })
}

func (a *ListApp) DecrementQuantity(ctx context.Context, itemID string) error {
	return a.updateItem(ctx, itemID, func(item *domain.ShoppingItem) { item.Quantity = max(1, item.Quantity-1) })
}

func (a *ListApp) DeleteItem(ctx context.Context, itemID string) error {
	return a.withCurrentList(ctx, func(idx int) bool {
		if !hasItem(a.lists[idx].Items, itemID) {
			return false
		}
		a.updateListByID(a.lists[idx].ID, func(l *domain.ShoppingList) {
			kept := make([]domain.ShoppingItem, 0, len(l.Items))
			for _, item := range l.Items {
				if item.ID != itemID {
					kept = append(kept, item)
				}
			}
			l.Items = kept
		})
		return true
	})
}

func (a *ListApp) ClearAll(ctx context.Context) error {
	return a.withCurrentList(ctx, func(idx int) bool {
		a.updateListByID(a.lists[idx].ID, func(l *domain.ShoppingList) { l.Items = []domain.ShoppingItem{} })
		return true
	})
}

func hasItem(items []domain.ShoppingItem, id string) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func hasActive(items []domain.ShoppingItem, name string) bool {
	normalized := domain.NormalizeName(name)
	for _, item := range items {
		if !item.Purchased && domain.NormalizeName(item.Name) == normalized {
			return true
		}
	}
	return false
}

// stage merges item into the selection by normalized name.
func stage(selected []domain.SelectedRecentItem, item domain.SelectedRecentItem) []domain.SelectedRecentItem {
	normalized := domain.NormalizeName(item.Name)
	for i := range selected {
		if domain.NormalizeName(selected[i].Name) == normalized {
			selected[i].Quantity += item.Quantity
			return selected
		}
	}
	return append(selected, item)
}
