package service

import (
	"context"

	"github.com/vbonduro/listsync/internal/domain"
	"github.com/vbonduro/listsync/internal/storage"
)

// State is a read-only snapshot for rendering.
type State struct {
	Hydrated       bool                  `json:"hydrated"`
	Route          domain.Route          `json:"route"`
	Lists          []domain.ShoppingList `json:"lists"`
	CurrentList    *domain.ShoppingList  `json:"currentList,omitempty"`
	HasItems       bool                  `json:"hasItems"`
	ActiveItems    []domain.ShoppingItem `json:"activeItems"`
	CompletedItems []domain.ShoppingItem `json:"completedItems"`
	ShowCompleted  bool                  `json:"showCompleted"`
	RecentItems    []string              `json:"recentItems"`
	Overlay        OverlayView           `json:"overlay"`
	Modal          ModalView             `json:"modal"`
	CurrentUserID  string                `json:"currentUserId,omitempty"`
	CloudSync      bool                  `json:"cloudSync"`
}

type OverlayView struct {
	Open     bool                        `json:"open"`
	Input    string                      `json:"input"`
	Selected []domain.SelectedRecentItem `json:"selected"`
}

type ModalView struct {
	Open   bool      `json:"open"`
	Mode   ModalMode `json:"mode"`
	Input  string    `json:"input"`
	Error  string    `json:"error,omitempty"`
	ListID string    `json:"listId,omitempty"`
}

func (a *ListApp) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	mode := a.modal.mode
	if mode == "" {
		mode = ModalCreate
	}
	_, cloud := a.provider.(storage.Joiner)

	s := State{
		Hydrated:       a.hydrated,
		Route:          a.route,
		Lists:          domain.SortByUpdated(a.lists),
		ActiveItems:    []domain.ShoppingItem{},
		CompletedItems: []domain.ShoppingItem{},
		ShowCompleted:  a.showCompleted,
		RecentItems:    []string{},
		Overlay: OverlayView{
			Open:     a.overlay.open,
			Input:    a.overlay.input,
			Selected: append([]domain.SelectedRecentItem{}, a.overlay.selected...),
		},
		Modal: ModalView{
			Open:   a.modal.open,
			Mode:   mode,
			Input:  a.modal.input,
			Error:  a.modal.err,
			ListID: a.modal.listID,
		},
		CurrentUserID: a.source.CurrentUserID(),
		CloudSync:     cloud,
	}

	if idx := a.currentLocked(); idx >= 0 {
		current := a.lists[idx].Clone()
		s.CurrentList = &current
		s.HasItems = len(current.Items) > 0
		active, completed := current.SplitItems()
		if active != nil {
			s.ActiveItems = active
		}
		if completed != nil {
			s.CompletedItems = completed
		}
		if current.Recents != nil {
			s.RecentItems = current.Recents
		}
	}
	return s
}

func (a *ListApp) SetShowCompleted(show bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.showCompleted = show
}

// OpenList navigates to a list.
func (a *ListApp) OpenList(ctx context.Context, id string) error {
	a.mu.Lock()
	if indexOf(a.lists, id) < 0 {
		a.mu.Unlock()
		return ErrListNotFound
	}
	persist := a.setRouteLocked(domain.ListRoute(id))
	a.mu.Unlock()

	a.saveRoute(ctx, domain.ListRoute(id), persist)
	return nil
}

func (a *ListApp) GoToLists(ctx context.Context) {
	a.navigate(ctx, domain.ListsRoute)
}

func (a *ListApp) GoToSettings(ctx context.Context) {
	a.navigate(ctx, domain.Route{Name: domain.RouteSettings})
}

func (a *ListApp) navigate(ctx context.Context, route domain.Route) {
	a.mu.Lock()
	persist := a.setRouteLocked(route)
	a.mu.Unlock()
	a.saveRoute(ctx, route, persist)
}
