package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/listsync/internal/domain"
	"github.com/vbonduro/listsync/internal/metrics"
	"github.com/vbonduro/listsync/internal/realtime"
	"github.com/vbonduro/listsync/internal/recents"
	"github.com/vbonduro/listsync/internal/storage"
)

const (
	msgJoinFailed   = "Failed to join list. Please try again."
	msgLeaveFailed  = "Failed to leave list. Please try again."
	msgDeleteFailed = "Failed to delete list. Please try again."
)

// Store is the cloud storage.Provider bound to one signed-in user. It
// implements every optional capability in package storage.
type Store struct {
	userID  string
	origin  string
	backend Backend
	feed    realtime.Feed
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	visible map[string]struct{}
}

// NewStore binds a store to userID. feed may be nil, in which case
// Subscribe delivers nothing.
func NewStore(userID string, backend Backend, feed realtime.Feed, logger *slog.Logger, m *metrics.Metrics) *Store {
	return &Store{
		userID:  userID,
		origin:  uuid.NewString(),
		backend: backend,
		feed:    feed,
		logger:  logger.With("user_id", userID),
		metrics: m,
		visible: make(map[string]struct{}),
	}
}

func (s *Store) LoadLists(ctx context.Context) []domain.ShoppingList {
	rows, err := s.backend.FetchVisible(ctx, s.userID)
	if err != nil {
		s.logger.Error("failed to load cloud lists", "error", err)
		return []domain.ShoppingList{}
	}

	lists := make([]domain.ShoppingList, 0, len(rows))
	visible := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, dup := visible[row.ID]; dup {
			continue
		}
		visible[row.ID] = struct{}{}
		lists = append(lists, rowToList(row))
	}

	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
	return lists
}

func (s *Store) SaveLists(ctx context.Context, lists []domain.ShoppingList) {
	_ = s.push(ctx, lists)
}

// ImportLists pushes lists like SaveLists but reports whether every row
// was written.
func (s *Store) ImportLists(ctx context.Context, lists []domain.ShoppingList) error {
	return s.push(ctx, lists)
}

// push upserts owned lists and patches shared ones. Failures are logged per
// list and the loop continues.
func (s *Store) push(ctx context.Context, lists []domain.ShoppingList) error {
	var errs []error
	for _, l := range lists {
		var (
			err  error
			path string
		)
		if l.OwnedBy(s.userID) {
			path = "upsert"
			err = s.backend.UpsertOwned(ctx, s.listToRow(l))
		} else {
			path = "update"
			err = s.backend.UpdateShared(ctx, s.userID, Patch{
				ID:         l.ID,
				Items:      normalizeItems(l.Items),
				Recents:    recents.Sanitize(l.Recents),
				UpdatedAt:  time.UnixMilli(l.UpdatedAt),
				LastWriter: s.origin,
			})
		}
		s.metrics.IncrementSave(path, metrics.Result(err))
		if err != nil {
			s.logger.Warn("failed to save cloud list", "list_id", l.ID, "path", path, "error", err)
			errs = append(errs, fmt.Errorf("list %s: %w", l.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) JoinList(ctx context.Context, shareCode string) error {
	code := strings.TrimSpace(shareCode)

	listID, err := s.backend.ResolveShareCode(ctx, code)
	if err != nil {
		s.metrics.IncrementMembership("join", metrics.ResultFailure)
		if errors.Is(err, ErrNotFound) {
			return storage.NotFound(err)
		}
		s.logger.Error("failed to resolve share code", "error", err)
		return storage.Failed(msgJoinFailed, err)
	}

	if err := s.backend.InsertMembership(ctx, listID, s.userID); err != nil {
		s.metrics.IncrementMembership("join", metrics.ResultFailure)
		switch {
		case errors.Is(err, ErrConflict):
			return storage.AlreadyJoined(err)
		case errors.Is(err, ErrNotFound):
			return storage.NotFound(err)
		default:
			s.logger.Error("failed to join list", "list_id", listID, "error", err)
			return storage.Failed(msgJoinFailed, err)
		}
	}

	s.metrics.IncrementMembership("join", metrics.ResultSuccess)
	s.logger.Info("joined list", "list_id", listID)
	return nil
}

func (s *Store) LeaveList(ctx context.Context, listID string) error {
	err := s.backend.DeleteMembership(ctx, listID, s.userID)
	s.metrics.IncrementMembership("leave", metrics.Result(err))
	if err != nil {
		s.logger.Error("failed to leave list", "list_id", listID, "error", err)
		return storage.Failed(msgLeaveFailed, err)
	}
	return nil
}

// DeleteList removes a list the caller owns. Deleting a list owned by
// someone else affects nothing and is not reported as an error.
func (s *Store) DeleteList(ctx context.Context, listID string) error {
	n, err := s.backend.DeleteOwned(ctx, listID, s.userID)
	s.metrics.IncrementMembership("delete", metrics.Result(err))
	if err != nil {
		s.logger.Error("failed to delete list", "list_id", listID, "error", err)
		return storage.Failed(msgDeleteFailed, err)
	}
	if n == 0 {
		s.logger.Warn("delete affected no rows", "list_id", listID)
	}
	return nil
}

// Subscribe refetches the visible lists after each burst of relevant
// changes and hands them to onChange. The returned func must not be called
// from inside onChange.
func (s *Store) Subscribe(ctx context.Context, onChange func([]domain.ShoppingList)) func() {
	if s.feed == nil {
		return func() {}
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := s.feed.Subscribe(subCtx)
	if err != nil {
		cancel()
		s.logger.Error("failed to open list change feed", "error", err)
		return func() {}
	}

	done := make(chan struct{})
	go s.pump(subCtx, sub, onChange, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := sub.Close(); err != nil {
				s.logger.Warn("failed to close list change feed", "error", err)
			}
			<-done
		})
	}
}

func (s *Store) pump(ctx context.Context, sub realtime.Subscription, onChange func([]domain.ShoppingList), done chan<- struct{}) {
	defer close(done)
	changes := sub.Changes()

	for {
		var c realtime.Change
		var ok bool
		select {
		case <-ctx.Done():
			return
		case c, ok = <-changes:
			if !ok {
				return
			}
		}

		refetch := s.relevant(c)
	drain:
		for {
			select {
			case c, ok = <-changes:
				if !ok {
					break drain
				}
				if s.relevant(c) {
					refetch = true
				}
			default:
				break drain
			}
		}
		if !refetch {
			continue
		}

		s.metrics.IncrementRefetch()
		lists := s.LoadLists(ctx)
		if ctx.Err() != nil {
			return
		}
		onChange(lists)
	}
}

// relevant reports whether c may change what the caller sees. Changes
// carrying this store's origin are its own writes echoed back, except the
// first write of a row not loaded yet: the backend assigns its share code.
func (s *Store) relevant(c realtime.Change) bool {
	if c.Op == realtime.OpResync {
		return true
	}
	if c.Origin != "" && c.Origin == s.origin {
		if c.Table == realtime.TableLists && !s.isVisible(c.ListID) {
			return true
		}
		s.metrics.IncrementEcho()
		return false
	}
	if c.Op == realtime.OpDelete {
		return true
	}

	switch c.Table {
	case realtime.TableLists:
		return c.UserID == s.userID || s.isVisible(c.ListID)
	case realtime.TableMembers:
		return c.Op == realtime.OpInsert && c.UserID == s.userID
	}
	return false
}

func (s *Store) isVisible(listID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.visible[listID]
	return ok
}

func rowToList(row Row) domain.ShoppingList {
	return domain.ShoppingList{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt.UnixMilli(),
		UpdatedAt: row.UpdatedAt.UnixMilli(),
		Items:     normalizeItems(row.Items),
		Recents:   recents.Sanitize(row.Recents),
		OwnerID:   row.UserID,
		ShareCode: row.ShareCode,
	}
}

func (s *Store) listToRow(l domain.ShoppingList) Row {
	return Row{
		ID:         l.ID,
		UserID:     s.userID,
		Name:       l.Name,
		CreatedAt:  time.UnixMilli(l.CreatedAt),
		UpdatedAt:  time.UnixMilli(l.UpdatedAt),
		Items:      normalizeItems(l.Items),
		Recents:    recents.Sanitize(l.Recents),
		LastWriter: s.origin,
	}
}

func normalizeItems(items []domain.ShoppingItem) []domain.ShoppingItem {
	out := make([]domain.ShoppingItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].Quantity < 1 {
			out[i].Quantity = 1
		}
	}
	return out
}
