// Package metrics defines the Prometheus collectors for card sync and Scryfall traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sync outcomes recorded per card.
const (
	OutcomeAdded   = "added"
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
)

// Sync run results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// SyncMetrics tracks sync runs and the Scryfall requests they make.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	requestsTotal *prometheus.CounterVec
	pagesFetched  prometheus.Counter
	runsTotal     *prometheus.CounterVec
	cardsTotal    *prometheus.CounterVec
	runDuration   prometheus.Histogram
}

// NewSyncMetrics creates the collectors and registers them with reg.
// Passing nil registers with prometheus.DefaultRegisterer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &SyncMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scryfall_requests_total",
			Help: "Scryfall search requests by HTTP status (or \"error\" for transport failures)",
		}, []string{"status"}),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scryfall_pages_fetched_total",
			Help: "Search result pages successfully fetched",
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "card_sync_runs_total",
			Help: "Card sync runs by result",
		}, []string{"result"}),
		cardsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "card_sync_cards_total",
			Help: "Cards reconciled by outcome",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "card_sync_duration_seconds",
			Help:    "Wall time of a full sync run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	reg.MustRegister(m.requestsTotal, m.pagesFetched, m.runsTotal, m.cardsTotal, m.runDuration)

	return m
}

// ObserveRequest counts one Scryfall request.
func (m *SyncMetrics) ObserveRequest(status string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(status).Inc()
}

// ObservePage counts one successfully decoded page.
func (m *SyncMetrics) ObservePage() {
	if m == nil {
		return
	}
	m.pagesFetched.Inc()
}

// ObserveCard counts one reconciled card.
func (m *SyncMetrics) ObserveCard(outcome string) {
	if m == nil {
		return
	}
	m.cardsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRun records the result and duration of a sync run.
func (m *SyncMetrics) ObserveRun(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(result).Inc()
	m.runDuration.Observe(d.Seconds())
}
