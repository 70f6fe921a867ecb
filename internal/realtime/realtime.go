// Package realtime carries list invalidation messages between writers and
// the clients that render them. A Change only says what moved; consumers
// refetch to learn the new state.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
)

type Table string

const (
	TableLists   Table = "lists"
	TableMembers Table = "list_members"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
	// OpResync is emitted after a feed reconnects. Events may have been
	// missed, so consumers must treat it as a change to everything.
	OpResync Op = "RESYNC"
)

// Change describes one committed row write. UserID is the list owner for
// lists rows, empty when the publisher does not know it, and the member for
// list_members rows. Origin is the writer's instance id when known.
type Change struct {
	Table  Table  `json:"table"`
	Op     Op     `json:"op"`
	ListID string `json:"list_id"`
	UserID string `json:"user_id"`
	Origin string `json:"origin,omitempty"`
}

// Resync returns a reconnect marker.
func Resync() Change {
	return Change{Op: OpResync}
}

// Decode parses a wire payload.
func Decode(data []byte) (Change, error) {
	var c Change
	if err := json.Unmarshal(data, &c); err != nil {
		return Change{}, fmt.Errorf("failed to decode change: %w", err)
	}
	if c.Op == "" {
		return Change{}, fmt.Errorf("failed to decode change: missing op")
	}
	return c, nil
}

// Encode renders c as a wire payload.
func Encode(c Change) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode change: %w", err)
	}
	return data, nil
}

// Subscription is one open feed. Changes is closed once the subscription
// ends, either through Close or the context passed to Subscribe.
type Subscription interface {
	Changes() <-chan Change
	Close() error
}

type Feed interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

// subscriptionBuffer bounds how far a slow consumer may fall behind before
// pending changes collapse into a resync.
const subscriptionBuffer = 64
