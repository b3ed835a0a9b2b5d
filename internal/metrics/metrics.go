package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "herald"

// Metrics groups the collectors exported on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	mutations   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	emptyLoads  *prometheus.CounterVec
	upstream    *prometheus.CounterVec
	reloads     *prometheus.CounterVec
	unavailable *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_mutations_total",
			Help:      "Read-modify-write cycles per collection kind and outcome.",
		}, []string{"kind", "outcome"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_entries_dropped_total",
			Help:      "Stored entries discarded while loading a blob.",
		}, []string{"kind"}),
		emptyLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_degraded_loads_total",
			Help:      "Loads that fell back to an empty blob, by reason.",
		}, []string{"kind", "reason"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_failures_total",
			Help:      "Failed collaborator calls by operation.",
		}, []string{"op"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_reloads_total",
			Help:      "Admin settings reloads by outcome.",
		}, []string{"outcome"}),
		unavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_unavailable_total",
			Help:      "Comment entries rendered with the unavailable placeholder.",
		}, []string{}),
	}
	if reg != nil {
		reg.MustRegister(m.mutations, m.dropped, m.emptyLoads, m.upstream, m.reloads, m.unavailable)
	}
	return m
}

func (m *Metrics) Mutation(kind, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Dropped(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dropped.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) DegradedLoad(kind, reason string) {
	if m == nil {
		return
	}
	m.emptyLoads.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) UpstreamFailure(op string) {
	if m == nil {
		return
	}
	m.upstream.WithLabelValues(op).Inc()
}

func (m *Metrics) Reload(outcome string) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Unavailable(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unavailable.WithLabelValues().Add(float64(n))
}
