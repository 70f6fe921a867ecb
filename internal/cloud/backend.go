// Package cloud implements the shared, multi-writer list backend. Store is
// the storage.Provider the app talks to; Backend is the relational layer
// underneath, with access rules enforced by the backend itself.
package cloud

import (
	"context"
	"errors"
	"time"

	"github.com/vbonduro/listsync/internal/domain"
)

var (
	// ErrNotFound is returned when a share code, list or membership does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a membership already exists.
	ErrConflict = errors.New("conflict")
	// ErrForbidden is returned when the caller may not write the row.
	ErrForbidden = errors.New("forbidden")
)

// Row is one list as stored remotely. UserID is the owner. LastWriter is
// the origin id of the store instance that made the latest write.
type Row struct {
	ID         string
	UserID     string
	Name       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Items      []domain.ShoppingItem
	Recents    []string
	ShareCode  string
	LastWriter string
}

// Patch is the subset of a row a member may change on a list it does not own.
type Patch struct {
	ID         string
	Items      []domain.ShoppingItem
	Recents    []string
	UpdatedAt  time.Time
	LastWriter string
}

// Backend is the remote persistence contract. Every method except
// ResolveShareCode is scoped to the calling user.
type Backend interface {
	// FetchVisible returns rows owned by userID plus rows joined through
	// membership.
	FetchVisible(ctx context.Context, userID string) ([]Row, error)
	// UpsertOwned inserts or replaces row keyed by id. It fails with
	// ErrForbidden when the stored row belongs to someone else. ShareCode,
	// UserID and CreatedAt of an existing row are never overwritten.
	UpsertOwned(ctx context.Context, row Row) error
	// UpdateShared writes the mutable fields of a list userID is a member
	// of. ErrNotFound when there is no such membership.
	UpdateShared(ctx context.Context, userID string, patch Patch) error
	// ResolveShareCode maps a share code to a list id without access checks.
	ResolveShareCode(ctx context.Context, code string) (string, error)
	// InsertMembership fails with ErrConflict when userID already joined.
	InsertMembership(ctx context.Context, listID, userID string) error
	DeleteMembership(ctx context.Context, listID, userID string) error
	// DeleteOwned removes the list when userID owns it and reports the
	// number of rows deleted.
	DeleteOwned(ctx context.Context, listID, userID string) (int64, error)
}
