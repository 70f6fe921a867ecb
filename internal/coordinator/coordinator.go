// Package coordinator decides which storage backend is authoritative for
// the current identity and moves local data into the cloud on sign-in.
package coordinator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vbonduro/listsync/internal/domain"
	"github.com/vbonduro/listsync/internal/metrics"
	"github.com/vbonduro/listsync/internal/storage"
)

// Identity is the authentication state reported by the session layer.
// Loading means the state is not known yet.
type Identity struct {
	Loading bool
	UserID  string
}

func SignedIn(userID string) Identity { return Identity{UserID: userID} }

func SignedOut() Identity { return Identity{} }

// RemoteFactory builds a cloud provider bound to userID.
type RemoteFactory func(userID string) storage.Provider

// Coordinator owns the active provider. Consumers receive only fully
// constructed providers, and swaps never overlap.
type Coordinator struct {
	local   storage.Provider
	remote  RemoteFactory
	logger  *slog.Logger
	metrics *metrics.Metrics

	swapMu sync.Mutex

	mu          sync.RWMutex
	active      storage.Provider
	activeUser  string
	identity    string
	resolved    bool
	initialized chan struct{}
	watchers    map[int]func(storage.Provider)
	nextWatcher int
}

// New returns a coordinator serving local until the first identity
// resolves. remote may be nil when cloud sync is disabled.
func New(local storage.Provider, remote RemoteFactory, logger *slog.Logger, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		local:       local,
		remote:      remote,
		logger:      logger,
		metrics:     m,
		active:      local,
		initialized: make(chan struct{}),
		watchers:    make(map[int]func(storage.Provider)),
	}
}

// SetIdentity reacts to an authentication change. Loading identities are
// ignored and repeating the resolved identity is a no-op.
func (c *Coordinator) SetIdentity(ctx context.Context, id Identity) {
	if id.Loading {
		return
	}

	c.swapMu.Lock()
	defer c.swapMu.Unlock()

	c.mu.RLock()
	unchanged := c.resolved && c.identity == id.UserID
	c.mu.RUnlock()
	if unchanged {
		return
	}

	next := c.local
	activeUser := ""
	switch {
	case id.UserID != "" && c.remote != nil:
		remote := c.remote(id.UserID)
		c.migrate(ctx, remote, id.UserID)
		next = remote
		activeUser = id.UserID
	case id.UserID != "":
		c.logger.Warn("cloud sync disabled, keeping local store", "user_id", id.UserID)
	}

	c.mu.Lock()
	c.active = next
	c.activeUser = activeUser
	c.identity = id.UserID
	first := !c.resolved
	c.resolved = true
	watchers := make([]func(storage.Provider), 0, len(c.watchers))
	for _, w := range c.watchers {
		watchers = append(watchers, w)
	}
	c.mu.Unlock()

	if first {
		close(c.initialized)
	}
	c.metrics.IncrementProviderSwap()
	c.logger.Info("storage provider activated", "cloud", activeUser != "", "user_id", activeUser)

	for _, w := range watchers {
		w(next)
	}
}

// migrate pushes local lists into remote. Local data is cleared only when
// the push fully succeeded; a failed push is retried on the next sign-in.
func (c *Coordinator) migrate(ctx context.Context, remote storage.Provider, userID string) {
	lists := c.local.LoadLists(ctx)
	if len(lists) == 0 {
		c.metrics.IncrementMigration(metrics.ResultSkipped)
		return
	}

	var err error
	if importer, ok := remote.(storage.Importer); ok {
		err = importer.ImportLists(ctx, lists)
	} else {
		remote.SaveLists(ctx, lists)
	}
	if err != nil {
		c.metrics.IncrementMigration(metrics.ResultFailure)
		c.logger.Error("failed to migrate local lists, keeping local copy", "user_id", userID, "lists", len(lists), "error", err)
		return
	}

	c.local.SaveLists(ctx, []domain.ShoppingList{})
	c.metrics.IncrementMigration(metrics.ResultSuccess)
	c.logger.Info("migrated local lists to cloud", "user_id", userID, "lists", len(lists))
}

// Initialized is closed once the first identity has resolved.
func (c *Coordinator) Initialized() <-chan struct{} {
	return c.initialized
}

func (c *Coordinator) Active() storage.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// CurrentUserID is the user the active provider is bound to, or "" for local.
func (c *Coordinator) CurrentUserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeUser
}

// Watch calls fn with the active provider once the first identity has
// resolved, and again after every swap. Calls are serialized with swaps.
func (c *Coordinator) Watch(fn func(storage.Provider)) (cancel func()) {
	c.swapMu.Lock()
	defer c.swapMu.Unlock()

	c.mu.Lock()
	id := c.nextWatcher
	c.nextWatcher++
	c.watchers[id] = fn
	resolved, active := c.resolved, c.active
	c.mu.Unlock()

	if resolved {
		fn(active)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watchers, id)
			c.mu.Unlock()
		})
	}
}
