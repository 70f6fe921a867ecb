// Package storage defines the capability surface shared by the local and
// cloud list backends.
//
// Provider is the mandatory pair every backend implements. The remaining
// interfaces are optional capabilities; callers discover them with a type
// assertion and must handle their absence.
package storage

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/vbonduro/listsync/internal/storage Provider

import (
	"context"

	"github.com/vbonduro/listsync/internal/domain"
)

// Provider persists the full list collection. Neither method reports errors:
// failures are logged by the implementation and treated as having no effect.
type Provider interface {
	LoadLists(ctx context.Context) []domain.ShoppingList
	SaveLists(ctx context.Context, lists []domain.ShoppingList)
}

// Subscriber pushes a fresh list collection whenever the backend changes.
// The returned func tears the feed down and is safe to call more than once.
type Subscriber interface {
	Subscribe(ctx context.Context, onChange func([]domain.ShoppingList)) (unsubscribe func())
}

// Joiner adds the caller as a member of the list behind shareCode.
// Errors are *DisplayError of kind ErrNotFound, ErrAlreadyJoined or ErrMembership.
type Joiner interface {
	JoinList(ctx context.Context, shareCode string) error
}

// Leaver removes the caller's membership. The owner's copy is unaffected.
type Leaver interface {
	LeaveList(ctx context.Context, listID string) error
}

// Deleter removes a list the caller owns, cascading its memberships.
type Deleter interface {
	DeleteList(ctx context.Context, listID string) error
}

// Importer is a Provider that can report whether a bulk push fully
// succeeded. Migration uses it to decide whether local data may be cleared.
type Importer interface {
	ImportLists(ctx context.Context, lists []domain.ShoppingList) error
}
