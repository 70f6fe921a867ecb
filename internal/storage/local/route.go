package local

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/vbonduro/listsync/internal/domain"
)

const routeKey = "@shopping_route_v1"

// RouteStore persists the last navigation position on the device. Only the
// lists overview and a specific list are restored.
type RouteStore struct {
	blobs  Blobs
	logger *slog.Logger
}

func NewRouteStore(blobs Blobs, logger *slog.Logger) *RouteStore {
	return &RouteStore{blobs: blobs, logger: logger}
}

// LoadRoute returns the stored route; ok is false when nothing usable is stored.
func (s *RouteStore) LoadRoute(ctx context.Context) (domain.Route, bool) {
	raw, ok, err := s.blobs.Get(ctx, routeKey)
	if err != nil {
		s.logger.Warn("failed to read route", "error", err)
		return domain.Route{}, false
	}
	if !ok {
		return domain.Route{}, false
	}
	return parseRoute(raw)
}

func (s *RouteStore) SaveRoute(ctx context.Context, route domain.Route) {
	data, err := json.Marshal(route)
	if err != nil {
		s.logger.Error("failed to encode route", "error", err)
		return
	}
	if err := s.blobs.Put(ctx, routeKey, string(data)); err != nil {
		s.logger.Warn("failed to write route", "error", err)
	}
}

func parseRoute(raw string) (domain.Route, bool) {
	var stored struct {
		Name   any `json:"name"`
		ListID any `json:"listId"`
	}
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return domain.Route{}, false
	}

	switch stored.Name {
	case string(domain.RouteLists):
		return domain.ListsRoute, true
	case string(domain.RouteList):
		if id, ok := stored.ListID.(string); ok {
			return domain.ListRoute(id), true
		}
	}
	return domain.Route{}, false
}
