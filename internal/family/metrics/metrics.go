// Package metrics provides observability for the sync engine. A nil
// *Metrics disables recording, so tests and embedded setups skip
// registration entirely.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus instruments.
type Metrics struct {
	// Refresh executions and throttle-coalesced triggers, by refresh key
	Refreshes          *prometheus.CounterVec
	RefreshesCoalesced *prometheus.CounterVec

	// Snapshot fetch latency by refresh key
	FetchDuration *prometheus.HistogramVec

	// Individual read retries across all refresh kinds
	FetchRetries prometheus.Counter

	// Completed fetches discarded because a newer family context took over
	StaleResultsDiscarded prometheus.Counter

	// Membership resolutions by winning source ("overview", "direct",
	// "scan", "none")
	MembershipResolutions *prometheus.CounterVec

	// Subscription establish failures
	EstablishFailures prometheus.Counter

	// Currently attached live sessions
	LiveSessions prometheus.Gauge
}

// New creates a Metrics instance with all engine metrics registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		Refreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "budgetme_sync_refreshes_total",
			Help: "Snapshot refreshes executed, by refresh key",
		}, []string{"key"}),

		RefreshesCoalesced: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "budgetme_sync_refreshes_coalesced_total",
			Help: "Refresh triggers absorbed by the per-key throttle window",
		}, []string{"key"}),

		FetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "budgetme_sync_fetch_duration_seconds",
			Help:    "Duration of snapshot fetches, retries included",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"key"}),

		FetchRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "budgetme_sync_fetch_retries_total",
			Help: "Read attempts beyond the first, across all refresh kinds",
		}),

		StaleResultsDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "budgetme_sync_stale_results_discarded_total",
			Help: "Completed fetches dropped because the family context changed mid-flight",
		}),

		MembershipResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "budgetme_membership_resolutions_total",
			Help: "Membership resolutions by winning source",
		}, []string{"source"}),

		EstablishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "budgetme_sync_establish_failures_total",
			Help: "Subscription establish attempts that failed",
		}),

		LiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "budgetme_sync_live_sessions",
			Help: "Currently attached live sessions",
		}),
	}
}

// RecordRefresh counts one executed refresh for a key.
func (m *Metrics) RecordRefresh(key string) {
	if m != nil {
		m.Refreshes.WithLabelValues(key).Inc()
	}
}

// RecordCoalesced counts a trigger absorbed by the throttle.
func (m *Metrics) RecordCoalesced(key string) {
	if m != nil {
		m.RefreshesCoalesced.WithLabelValues(key).Inc()
	}
}

// ObserveFetch records the duration of one snapshot fetch.
func (m *Metrics) ObserveFetch(key string, d time.Duration) {
	if m != nil {
		m.FetchDuration.WithLabelValues(key).Observe(d.Seconds())
	}
}

// RecordRetry counts one read attempt beyond the first.
func (m *Metrics) RecordRetry() {
	if m != nil {
		m.FetchRetries.Inc()
	}
}

// RecordStaleDiscard counts a superseded fetch result thrown away.
func (m *Metrics) RecordStaleDiscard() {
	if m != nil {
		m.StaleResultsDiscarded.Inc()
	}
}

// RecordResolution counts a membership resolution by winning source.
func (m *Metrics) RecordResolution(source string) {
	if m != nil {
		m.MembershipResolutions.WithLabelValues(source).Inc()
	}
}

// RecordEstablishFailure counts a failed subscription establish.
func (m *Metrics) RecordEstablishFailure() {
	if m != nil {
		m.EstablishFailures.Inc()
	}
}

// SessionAttached moves the live-session gauge up.
func (m *Metrics) SessionAttached() {
	if m != nil {
		m.LiveSessions.Inc()
	}
}

// SessionDetached moves the live-session gauge down.
func (m *Metrics) SessionDetached() {
	if m != nil {
		m.LiveSessions.Dec()
	}
}
