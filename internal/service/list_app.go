package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/listsync/internal/domain"
	"github.com/vbonduro/listsync/internal/metrics"
	"github.com/vbonduro/listsync/internal/storage"
)

// providerSource is the subset of coordinator.Coordinator that ListApp requires.
type providerSource interface {
	Initialized() <-chan struct{}
	CurrentUserID() string
	Watch(fn func(storage.Provider)) (cancel func())
}

// routeRepository is the subset of local.RouteStore that ListApp requires.
type routeRepository interface {
	LoadRoute(ctx context.Context) (domain.Route, bool)
	SaveRoute(ctx context.Context, route domain.Route)
}

type notifier interface {
	Notify(message string)
}

// ListApp owns the in-memory list collection and navigation state. Every
// method is safe for concurrent use; state changes are applied one at a
// time under a single mutex.
type ListApp struct {
	source   providerSource
	routes   routeRepository
	notifier notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func() string

	mu            sync.Mutex
	ctx           context.Context
	stop          context.CancelFunc
	provider      storage.Provider
	generation    uint64
	hydrated      bool
	closed        bool
	lists         []domain.ShoppingList
	known         map[string]string
	departing     map[string]struct{}
	route         domain.Route
	showCompleted bool
	overlay       overlayState
	modal         modalState
	unsubscribe   func()
	cancelWatch   func()
	version       uint64

	saveMu       sync.Mutex
	savedVersion uint64
}

type Option func(*ListApp)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *ListApp) { a.now = now }
}

// WithIDGenerator overrides how list and item ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(a *ListApp) { a.newID = newID }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *ListApp) { a.metrics = m }
}

func NewListApp(source providerSource, routes routeRepository, n notifier, logger *slog.Logger, opts ...Option) *ListApp {
	a := &ListApp{
		source:        source,
		routes:        routes,
		notifier:      n,
		logger:        logger,
		now:           time.Now,
		newID:         uuid.NewString,
		known:         make(map[string]string),
		departing:     make(map[string]struct{}),
		lists:         []domain.ShoppingList{},
		route:         domain.ListsRoute,
		showCompleted: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start waits for the first identity resolution, hydrates from the active
// provider and follows every later provider swap.
func (a *ListApp) Start(ctx context.Context) error {
	select {
	case <-a.source.Initialized():
	case <-ctx.Done():
		return ctx.Err()
	}

	a.mu.Lock()
	if a.closed || a.stop != nil {
		a.mu.Unlock()
		return nil
	}
	a.ctx, a.stop = context.WithCancel(ctx)
	runCtx := a.ctx
	a.mu.Unlock()

	cancel := a.source.Watch(func(p storage.Provider) { a.attach(runCtx, p) })

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		cancel()
		return nil
	}
	a.cancelWatch = cancel
	a.mu.Unlock()
	return nil
}

// Close discards in-flight results and tears down the subscription.
func (a *ListApp) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.generation++
	unsubscribe, cancelWatch, stop := a.unsubscribe, a.cancelWatch, a.stop
	a.unsubscribe, a.cancelWatch = nil, nil
	a.mu.Unlock()

	if cancelWatch != nil {
		cancelWatch()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	if stop != nil {
		stop()
	}
}

// attach makes p the active provider. The previous subscription is torn
// down first, and results for an older generation are dropped.
func (a *ListApp) attach(ctx context.Context, p storage.Provider) {
	a.saveMu.Lock()
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.saveMu.Unlock()
		return
	}
	a.generation++
	gen := a.generation
	previous := a.unsubscribe
	a.unsubscribe = nil
	a.provider = p
	a.hydrated = false
	a.mu.Unlock()
	a.saveMu.Unlock()

	if previous != nil {
		previous()
	}

	var (
		lists   []domain.ShoppingList
		route   domain.Route
		routeOK bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lists = p.LoadLists(gctx)
		return nil
	})
	g.Go(func() error {
		route, routeOK = a.routes.LoadRoute(gctx)
		return nil
	})
	_ = g.Wait()

	a.mu.Lock()
	if gen != a.generation || a.closed {
		a.mu.Unlock()
		return
	}
	if lists == nil {
		lists = []domain.ShoppingList{}
	}
	fellBack := false
	if !routeOK {
		route = domain.ListsRoute
	} else if route.Name == domain.RouteList && indexOf(lists, route.ListID) < 0 {
		route = domain.ListsRoute
		fellBack = true
	}
	a.lists = domain.CloneLists(lists)
	a.known = nameMap(lists)
	a.departing = make(map[string]struct{})
	a.route = route
	a.overlay = overlayState{}
	a.modal = modalState{}
	a.hydrated = true
	a.mu.Unlock()

	if fellBack {
		a.routes.SaveRoute(ctx, route)
	}
	a.logger.Info("lists hydrated", "lists", len(lists), "route", route.Name)

	sub, ok := p.(storage.Subscriber)
	if !ok {
		return
	}
	unsubscribe := sub.Subscribe(ctx, func(fresh []domain.ShoppingList) { a.applyRemote(ctx, gen, fresh) })

	a.mu.Lock()
	if gen != a.generation || a.closed {
		a.mu.Unlock()
		unsubscribe()
		return
	}
	a.unsubscribe = unsubscribe
	a.mu.Unlock()
}

// applyRemote replaces the collection with a pushed snapshot. Pushed state
// is never saved back. Lists this client is leaving or deleting never raise
// a deleted-by-owner notice, even when a snapshot taken before the removal
// lands first.
func (a *ListApp) applyRemote(ctx context.Context, gen uint64, fresh []domain.ShoppingList) {
	a.mu.Lock()
	if gen != a.generation || a.closed {
		a.mu.Unlock()
		return
	}

	present := nameMap(fresh)
	var vanished []string
	for id, name := range a.known {
		if _, ok := present[id]; ok {
			continue
		}
		if _, ok := a.departing[id]; ok {
			continue
		}
		vanished = append(vanished, name)
	}
	sort.Strings(vanished)
	for id := range a.departing {
		if _, ok := present[id]; !ok {
			delete(a.departing, id)
		}
	}

	a.known = present
	a.lists = domain.CloneLists(fresh)
	routeChanged := a.collapseRouteLocked()
	route := a.route
	a.mu.Unlock()

	for _, name := range vanished {
		a.metrics.IncrementOwnerDeletion()
		a.notifier.Notify(`"` + name + `" was deleted by its owner.`)
	}
	if routeChanged {
		a.routes.SaveRoute(ctx, route)
	}
}

// updateListByID applies fn to the list with id and stamps UpdatedAt.
// Callers hold a.mu.
func (a *ListApp) updateListByID(id string, fn func(*domain.ShoppingList)) bool {
	i := indexOf(a.lists, id)
	if i < 0 {
		return false
	}
	fn(&a.lists[i])
	a.lists[i].UpdatedAt = a.now().UnixMilli()
	return true
}

// commitLocked records a local mutation and returns the snapshot to save.
// Callers hold a.mu and pass the result to persist after unlocking.
func (a *ListApp) commitLocked() pendingSave {
	a.version++
	if !a.hydrated || a.provider == nil {
		return pendingSave{}
	}
	return pendingSave{
		provider:   a.provider,
		generation: a.generation,
		lists:      domain.CloneLists(a.lists),
		version:    a.version,
		ok:         true,
	}
}

type pendingSave struct {
	provider   storage.Provider
	generation uint64
	lists      []domain.ShoppingList
	version    uint64
	ok         bool
}

// persist writes a committed snapshot. Saves are serialized, a snapshot
// older than one already written is skipped, and a snapshot committed
// before the provider changed is dropped.
func (a *ListApp) persist(ctx context.Context, s pendingSave) {
	if !s.ok {
		return
	}
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	if s.version <= a.savedVersion {
		return
	}
	a.mu.Lock()
	stale := s.generation != a.generation
	a.mu.Unlock()
	if stale {
		a.logger.Debug("dropping save for a replaced provider", "version", s.version)
		return
	}
	s.provider.SaveLists(ctx, s.lists)
	a.savedVersion = s.version
}

// setRouteLocked changes the route and resets the overlay. It reports
// whether the route should be persisted.
func (a *ListApp) setRouteLocked(route domain.Route) bool {
	a.route = route
	a.overlay = overlayState{}
	return a.hydrated
}

// collapseRouteLocked sends a route naming a missing list back to the
// overview.
func (a *ListApp) collapseRouteLocked() bool {
	if a.route.Name != domain.RouteList || indexOf(a.lists, a.route.ListID) >= 0 {
		return false
	}
	return a.setRouteLocked(domain.ListsRoute)
}

func (a *ListApp) saveRoute(ctx context.Context, route domain.Route, ok bool) {
	if ok {
		a.routes.SaveRoute(ctx, route)
	}
}

// currentLocked returns the index of the list the route points at.
func (a *ListApp) currentLocked() int {
	if a.route.Name != domain.RouteList {
		return -1
	}
	return indexOf(a.lists, a.route.ListID)
}

func indexOf(lists []domain.ShoppingList, id string) int {
	for i := range lists {
		if lists[i].ID == id {
			return i
		}
	}
	return -1
}

func nameMap(lists []domain.ShoppingList) map[string]string {
	m := make(map[string]string, len(lists))
	for _, l := range lists {
		m[l.ID] = l.Name
	}
	return m
}
