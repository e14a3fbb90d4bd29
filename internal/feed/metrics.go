package feed

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricFeedRequests     = "feed_requests_total"
	MetricFeedCandidates   = "feed_candidates_per_request"
	MetricFeedSeenBackfill = "feed_seen_backfill_total"
)

// Metrics contains Prometheus metrics for feed assembly. All
// operations are thread-safe.
type Metrics struct {
	requests     *prometheus.CounterVec
	candidates   prometheus.Histogram
	seenBackfill prometheus.Counter
}

// NewMetrics creates a Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to
// register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFeedRequests,
				Help: "Total number of feed assembly requests by endpoint",
			},
			[]string{"endpoint"},
		),
		candidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricFeedCandidates,
				Help:    "Candidate set size per feed request",
				Buckets: prometheus.ExponentialBuckets(10, 4, 6), // 10 to ~10k
			},
		),
		seenBackfill: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricFeedSeenBackfill,
				Help: "Total number of feed pages backfilled from already-seen posts",
			},
		),
	}
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.requests,
		m.candidates,
		m.seenBackfill,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRequest records one feed assembly request and its candidate
// set size.
func (m *Metrics) ObserveRequest(endpoint string, candidates int) {
	m.requests.WithLabelValues(endpoint).Inc()
	m.candidates.Observe(float64(candidates))
}

// IncSeenBackfill records a page that dipped into the seen phase.
func (m *Metrics) IncSeenBackfill() {
	m.seenBackfill.Inc()
}
