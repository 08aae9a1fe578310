// Package metrics exposes the pipeline counters scraped from /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "civiclens"

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	oracleCalls         *prometheus.CounterVec
	oracleDuration      *prometheus.HistogramVec
	triageOutcomes      *prometheus.CounterVec
	duplicateMerges     prometheus.Counter
	provenanceRejects   *prometheus.CounterVec
	resolutionOutcomes  *prometheus.CounterVec
	rewardsIssued       prometheus.Counter
	rewardsFailed       prometheus.Counter
	consistencyWarnings prometheus.Counter
	queueRetries        prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		oracleCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Calls to the AI oracle by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		oracleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_call_duration_seconds",
			Help:      "Latency of AI oracle calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"purpose"}),
		triageOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triage_outcomes_total",
			Help:      "Triage runs by outcome.",
		}, []string{"outcome"}),
		duplicateMerges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_merges_total",
			Help:      "Reports merged into an existing issue.",
		}),
		provenanceRejects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provenance_rejections_total",
			Help:      "Reports rejected by the photo provenance check.",
		}, []string{"kind"}),
		resolutionOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_outcomes_total",
			Help:      "Resolution verifications by outcome.",
		}, []string{"outcome"}),
		rewardsIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_issued_total",
			Help:      "Civic credit grants applied.",
		}),
		rewardsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_failed_total",
			Help:      "Civic credit grants that failed to apply.",
		}),
		consistencyWarnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_consistency_warnings_total",
			Help:      "Status changes committed without their ledger entry.",
		}),
		queueRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triage_job_retries_total",
			Help:      "Triage jobs re-queued after a failed run.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveOracleCall(purpose, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.oracleCalls.WithLabelValues(purpose, outcome).Inc()
	m.oracleDuration.WithLabelValues(purpose).Observe(seconds)
}

func (m *Metrics) IncTriageOutcome(outcome string) {
	if m == nil {
		return
	}
	m.triageOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncDuplicateMerge() {
	if m == nil {
		return
	}
	m.duplicateMerges.Inc()
}

func (m *Metrics) IncProvenanceReject(kind string) {
	if m == nil {
		return
	}
	m.provenanceRejects.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncResolutionOutcome(outcome string) {
	if m == nil {
		return
	}
	m.resolutionOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRewardIssued() {
	if m == nil {
		return
	}
	m.rewardsIssued.Inc()
}

func (m *Metrics) IncRewardFailed() {
	if m == nil {
		return
	}
	m.rewardsFailed.Inc()
}

func (m *Metrics) IncConsistencyWarning() {
	if m == nil {
		return
	}
	m.consistencyWarnings.Inc()
}

func (m *Metrics) IncQueueRetry() {
	if m == nil {
		return
	}
	m.queueRetries.Inc()
}
