package service

import (
	"context"
	"strings"

	"github.com/vbonduro/listsync/internal/domain"
	"github.com/vbonduro/listsync/internal/storage"
)

const (
	msgNameRequired  = "List name is required."
	msgNameUnique    = "List name must be unique."
	msgShareRequired = "Share ID is required."
	msgJoinNeedsSync = "Cloud sync is required to join a list."
	msgJoinFailed    = "Failed to join list"
	msgLeaveFailed   = "Failed to leave list. Please try again."
	msgDeleteFailed  = "Failed to delete list. Please try again."
)

// ValidationError is a user input problem. Its message is displayable.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(message string) error { return &ValidationError{Message: message} }

type ModalMode string

const (
	ModalCreate ModalMode = "create"
	ModalRename ModalMode = "rename"
	ModalJoin   ModalMode = "join"
	ModalShare  ModalMode = "share"
)

type modalState struct {
	open   bool
	mode   ModalMode
	input  string
	err    string
	listID string
}

// validateNameLocked returns the trimmed name, or a displayable error when
// it is blank or collides case-insensitively with another list.
func (a *ListApp) validateNameLocked(name, excludeID string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", invalid(msgNameRequired)
	}
	normalized := domain.NormalizeName(trimmed)
	for _, l := range a.lists {
		if l.ID != excludeID && domain.NormalizeName(l.Name) == normalized {
			return "", invalid(msgNameUnique)
		}
	}
	return trimmed, nil
}

// CreateList adds an empty list at the front of the collection.
func (a *ListApp) CreateList(ctx context.Context, name string) (domain.ShoppingList, error) {
	a.mu.Lock()
	trimmed, err := a.validateNameLocked(name, "")
	if err != nil {
		a.mu.Unlock()
		return domain.ShoppingList{}, err
	}
	ts := a.now().UnixMilli()
	list := domain.ShoppingList{
		ID:        a.newID(),
		Name:      trimmed,
		CreatedAt: ts,
		UpdatedAt: ts,
		Items:     []domain.ShoppingItem{},
		Recents:   []string{},
	}
	a.lists = append([]domain.ShoppingList{list}, a.lists...)
	save := a.commitLocked()
	a.mu.Unlock()

	a.persist(ctx, save)
	return list.Clone(), nil
}

// RenameList validates name against every other list and renames id.
// A rejected name leaves the collection untouched.
func (a *ListApp) RenameList(ctx context.Context, id, name string) error {
	a.mu.Lock()
	if indexOf(a.lists, id) < 0 {
		a.mu.Unlock()
		return ErrListNotFound
	}
	trimmed, err := a.validateNameLocked(name, id)
	if err != nil {
		a.mu.Unlock()
		return err
	}
	a.updateListByID(id, func(l *domain.ShoppingList) { l.Name = trimmed })
	save := a.commitLocked()
	a.mu.Unlock()

	a.persist(ctx, save)
	return nil
}

// JoinList joins the list behind shareCode and reloads the collection.
// Failures are displayable.
func (a *ListApp) JoinList(ctx context.Context, shareCode string) error {
	code := strings.TrimSpace(shareCode)
	if code == "" {
		return invalid(msgShareRequired)
	}

	a.mu.Lock()
	p, gen := a.provider, a.generation
	a.mu.Unlock()

	joiner, ok := p.(storage.Joiner)
	if !ok {
		return invalid(msgJoinNeedsSync)
	}
	if err := joiner.JoinList(ctx, code); err != nil {
		a.logger.Info("join list rejected", "error", err)
		return err
	}

	fresh := p.LoadLists(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation || a.closed {
		return nil
	}
	a.lists = domain.CloneLists(fresh)
	a.known = nameMap(fresh)
	return nil
}

// DeleteList removes a list this client owns. A list joined from someone
// else is left instead. The id leaves the tracked set first so the
// resulting push raises no deleted-by-owner notice. A remote failure is
// reported through the notifier only.
func (a *ListApp) DeleteList(ctx context.Context, id string) error {
	userID := a.source.CurrentUserID()

	a.mu.Lock()
	i := indexOf(a.lists, id)
	if i < 0 {
		a.mu.Unlock()
		return ErrListNotFound
	}
	if a.lists[i].SharedWith(userID) {
		a.mu.Unlock()
		return a.LeaveList(ctx, id)
	}
	delete(a.known, id)
	a.departing[id] = struct{}{}
	a.lists = append(a.lists[:i:i], a.lists[i+1:]...)
	routeChanged := a.collapseRouteLocked()
	route, p := a.route, a.provider
	save := a.commitLocked()
	a.mu.Unlock()

	a.saveRoute(ctx, route, routeChanged)

	if d, ok := p.(storage.Deleter); ok {
		if err := d.DeleteList(ctx, id); err != nil {
			a.logger.Warn("failed to delete list", "list_id", id, "error", err)
			a.mu.Lock()
			delete(a.departing, id)
			a.mu.Unlock()
			a.notifier.Notify(storage.Message(err, msgDeleteFailed))
			return nil
		}
	}
	a.persist(ctx, save)
	return nil
}

// LeaveList drops the caller's membership of a shared list. The outcome is
// reported through the notifier; a remote failure keeps the list.
func (a *ListApp) LeaveList(ctx context.Context, id string) error {
	a.mu.Lock()
	i := indexOf(a.lists, id)
	if i < 0 {
		a.mu.Unlock()
		return ErrListNotFound
	}
	name := a.lists[i].Name
	delete(a.known, id)
	a.departing[id] = struct{}{}
	p := a.provider
	a.mu.Unlock()

	if l, ok := p.(storage.Leaver); ok {
		if err := l.LeaveList(ctx, id); err != nil {
			a.logger.Warn("failed to leave list", "list_id", id, "error", err)
			a.mu.Lock()
			delete(a.departing, id)
			if indexOf(a.lists, id) >= 0 {
				a.known[id] = name
			}
			a.mu.Unlock()
			a.notifier.Notify(msgLeaveFailed)
			return nil
		}
	}

	a.mu.Lock()
	if i := indexOf(a.lists, id); i >= 0 {
		a.lists = append(a.lists[:i:i], a.lists[i+1:]...)
	}
	routeChanged := a.collapseRouteLocked()
	route := a.route
	save := a.commitLocked()
	a.mu.Unlock()

	a.saveRoute(ctx, route, routeChanged)
	a.persist(ctx, save)
	a.notifier.Notify(`Left "` + name + `".`)
	return nil
}

func (a *ListApp) OpenCreateListModal() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.modal = modalState{open: true, mode: ModalCreate}
}

func (a *ListApp) OpenRenameListModal(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := indexOf(a.lists, id)
	if i < 0 {
		return
	}
	a.modal = modalState{open: true, mode: ModalRename, input: a.lists[i].Name, listID: id}
}

func (a *ListApp) OpenJoinListModal() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.modal = modalState{open: true, mode: ModalJoin}
}

// OpenShareListModal shows the list's share code, or its id when the list
// has no code yet.
func (a *ListApp) OpenShareListModal(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	input := id
	if i := indexOf(a.lists, id); i >= 0 && a.lists[i].ShareCode != "" {
		input = a.lists[i].ShareCode
	}
	a.modal = modalState{open: true, mode: ModalShare, input: input, listID: id}
}

// SetListNameInput updates the modal text and clears any shown error.
func (a *ListApp) SetListNameInput(value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.modal.input = value
	a.modal.err = ""
}

func (a *ListApp) CloseListNameModal() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.modal = modalState{}
}

// SubmitListName runs the modal's action. On failure the modal stays open
// with a displayable error.
func (a *ListApp) SubmitListName(ctx context.Context) {
	a.mu.Lock()
	m := a.modal
	a.mu.Unlock()
	if !m.open {
		return
	}

	var err error
	switch m.mode {
	case ModalShare:
	case ModalJoin:
		err = a.JoinList(ctx, m.input)
	case ModalRename:
		err = a.RenameList(ctx, m.listID, m.input)
	default:
		_, err = a.CreateList(ctx, m.input)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.modal.err = storage.Message(err, msgJoinFailed)
		return
	}
	a.modal = modalState{}
}
