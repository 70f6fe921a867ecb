// Package metrics holds the Prometheus collectors for list sync. A nil
// *Metrics is valid and records nothing, so components can be built without
// a registry in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

type Metrics struct {
	Migrations         *prometheus.CounterVec
	ProviderSaves      *prometheus.CounterVec
	MembershipOps      *prometheus.CounterVec
	RealtimeRefetches  prometheus.Counter
	RealtimeEchoes     prometheus.Counter
	OwnerDeletions     prometheus.Counter
	ProviderSwaps      prometheus.Counter
	SuggestionRequests *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers every collector with reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Migrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listsync_migrations_total",
			Help: "Local to cloud migrations attempted on sign-in, by result",
		}, []string{"result"}),
		ProviderSaves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listsync_cloud_saves_total",
			Help: "Cloud list writes by path (upsert or update) and result",
		}, []string{"path", "result"}),
		MembershipOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listsync_membership_operations_total",
			Help: "Join, leave and delete operations by result",
		}, []string{"op", "result"}),
		RealtimeRefetches: f.NewCounter(prometheus.CounterOpts{
			Name: "listsync_realtime_refetches_total",
			Help: "Full list refetches triggered by the change feed",
		}),
		RealtimeEchoes: f.NewCounter(prometheus.CounterOpts{
			Name: "listsync_realtime_echoes_ignored_total",
			Help: "Change feed events ignored because this instance wrote them",
		}),
		OwnerDeletions: f.NewCounter(prometheus.CounterOpts{
			Name: "listsync_owner_deletions_notified_total",
			Help: "Deleted-by-owner notifications raised",
		}),
		ProviderSwaps: f.NewCounter(prometheus.CounterOpts{
			Name: "listsync_provider_swaps_total",
			Help: "Active storage provider changes",
		}),
		SuggestionRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listsync_suggestion_requests_total",
			Help: "Item suggestion requests by result",
		}, []string{"result"}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) IncrementMigration(result string) {
	if m == nil {
		return
	}
	m.Migrations.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementSave(path, result string) {
	if m == nil {
		return
	}
	m.ProviderSaves.WithLabelValues(path, result).Inc()
}

func (m *Metrics) IncrementMembership(op, result string) {
	if m == nil {
		return
	}
	m.MembershipOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) IncrementRefetch() {
	if m == nil {
		return
	}
	m.RealtimeRefetches.Inc()
}

func (m *Metrics) IncrementEcho() {
	if m == nil {
		return
	}
	m.RealtimeEchoes.Inc()
}

func (m *Metrics) IncrementOwnerDeletion() {
	if m == nil {
		return
	}
	m.OwnerDeletions.Inc()
}

func (m *Metrics) IncrementProviderSwap() {
	if m == nil {
		return
	}
	m.ProviderSwaps.Inc()
}

func (m *Metrics) IncrementSuggestion(result string) {
	if m == nil {
		return
	}
	m.SuggestionRequests.WithLabelValues(result).Inc()
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
