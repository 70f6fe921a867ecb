// Package notify queues short user-facing messages until a client drains
// them.
package notify

import (
	"sync"
	"time"
)

// DefaultCapacity bounds a queue built with NewQueue(0).
const DefaultCapacity = 50

type Notification struct {
	ID      uint64    `json:"id"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Queue is a bounded FIFO. When full, the oldest message is dropped.
type Queue struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	nextID   uint64
	now      func() time.Time
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{capacity: capacity, now: time.Now}
}

func (q *Queue) Notify(message string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	q.items = append(q.items, Notification{ID: q.nextID, Message: message, At: q.now()})
	if over := len(q.items) - q.capacity; over > 0 {
		q.items = append([]Notification(nil), q.items[over:]...)
	}
}

// Drain returns and removes every queued message, oldest first.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	if out == nil {
		return []Notification{}
	}
	return out
}
