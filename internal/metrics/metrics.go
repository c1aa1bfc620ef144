package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crystalplaces"

type Metrics struct {
	startTime      time.Time
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	requests       prometheus.Counter
	responses      *prometheus.CounterVec
	staleResponses prometheus.Counter
	loadErrors     prometheus.Counter
	requestLatency *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Suggestion lookups served from the cache.",
		}, []string{"partition"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Suggestion lookups not found in the cache.",
		}, []string{"partition"}),
		requests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests issued to the places service.",
		}),
		responses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Responses committed, by service status.",
		}, []string{"status"}),
		staleResponses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer input superseded them.",
		}),
		loadErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Failed attempts to resolve the places library.",
		}),
		requestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of places service calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

func (m *Metrics) IncrCacheHit(partition string) {
	m.cacheHits.WithLabelValues(partition).Inc()
}

func (m *Metrics) IncrCacheMiss(partition string) {
	m.cacheMisses.WithLabelValues(partition).Inc()
}

func (m *Metrics) IncrRequest() {
	m.requests.Inc()
}

func (m *Metrics) AddResponse(status string) {
	m.responses.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrStaleResponse() {
	m.staleResponses.Inc()
}

func (m *Metrics) IncrLoadError() {
	m.loadErrors.Inc()
}

// ObserveCall records the duration of one service call
func (m *Metrics) ObserveCall(op string, duration time.Duration) {
	m.requestLatency.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
