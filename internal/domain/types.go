package domain

import (
	"sort"
	"strings"
	"time"
)

// ShoppingItem is a single row on a list. CreatedAt is Unix milliseconds.
type ShoppingItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Purchased bool   `json:"purchased"`
	CreatedAt int64  `json:"createdAt"`
	Quantity  int    `json:"quantity"`
}

// ShoppingList is the unit of persistence and sharing. Timestamps are Unix
// milliseconds. An empty OwnerID means the list belongs to the local/guest
// context.
type ShoppingList struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	CreatedAt int64          `json:"createdAt"`
	UpdatedAt int64          `json:"updatedAt"`
	Items     []ShoppingItem `json:"items"`
	Recents   []string       `json:"recents"`
	OwnerID   string         `json:"ownerId,omitempty"`
	ShareCode string         `json:"shareCode,omitempty"`
}

// OwnedBy reports whether userID may write the full row.
func (l ShoppingList) OwnedBy(userID string) bool {
	return l.OwnerID == "" || l.OwnerID == userID
}

// SharedWith reports whether the list was joined by userID rather than owned.
func (l ShoppingList) SharedWith(userID string) bool {
	return !l.OwnedBy(userID)
}

// Clone returns a deep copy so callers can mutate items and recents freely.
func (l ShoppingList) Clone() ShoppingList {
	c := l
	if l.Items != nil {
		c.Items = append([]ShoppingItem(nil), l.Items...)
	}
	if l.Recents != nil {
		c.Recents = append([]string(nil), l.Recents...)
	}
	return c
}

// SplitItems returns unpurchased and purchased items, newest first.
func (l ShoppingList) SplitItems() (active, completed []ShoppingItem) {
	sorted := append([]ShoppingItem(nil), l.Items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt > sorted[j].CreatedAt })
	for _, item := range sorted {
		if item.Purchased {
			completed = append(completed, item)
		} else {
			active = append(active, item)
		}
	}
	return active, completed
}

// CloneLists deep-copies a slice of lists.
func CloneLists(lists []ShoppingList) []ShoppingList {
	out := make([]ShoppingList, len(lists))
	for i, l := range lists {
		out[i] = l.Clone()
	}
	return out
}

// SortByUpdated returns a copy of lists ordered most recently updated first.
func SortByUpdated(lists []ShoppingList) []ShoppingList {
	out := CloneLists(lists)
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out
}

// NormalizeName is the comparison key for list and item names.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type RouteName string

const (
	RouteLists    RouteName = "lists"
	RouteList     RouteName = "list"
	RouteSettings RouteName = "settings"
)

// Route is the navigation position. ListID is set only for RouteList.
type Route struct {
	Name   RouteName `json:"name"`
	ListID string    `json:"listId,omitempty"`
}

// ListsRoute is the overview screen and the fallback for any invalid route.
var ListsRoute = Route{Name: RouteLists}

func ListRoute(listID string) Route {
	return Route{Name: RouteList, ListID: listID}
}

// SelectedRecentItem is staged in the add-items overlay and never persisted.
type SelectedRecentItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Membership grants a non-owner access to a shared list.
type Membership struct {
	ListID    string
	UserID    string
	CreatedAt time.Time
}
