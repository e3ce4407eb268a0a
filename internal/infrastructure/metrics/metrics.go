package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gotransfer"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	Transfers           *prometheus.CounterVec
	TransferDuration    *prometheus.HistogramVec
	CommitRetries       *prometheus.CounterVec
	StatusWritesDropped prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates all metrics and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Transfer metrics
		Transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_total",
				Help:      "Total transfers by outcome",
			},
			[]string{"outcome"},
		),
		TransferDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transfer_duration_seconds",
				Help:      "Duration of transfer executions, retries included",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		CommitRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commit_retries_total",
				Help:      "Atomic commit retries by reason",
			},
			[]string{"reason"},
		),
		StatusWritesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_write_dropped_total",
			Help:      "Idempotency status writes dropped after exhausting retries",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
	}
}

// ObserveTransfer records one finished transfer.
func (m *Metrics) ObserveTransfer(outcome string, elapsed time.Duration) {
	m.Transfers.WithLabelValues(outcome).Inc()
	m.TransferDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// IncCommitRetry counts one commit retry.
func (m *Metrics) IncCommitRetry(reason string) {
	m.CommitRetries.WithLabelValues(reason).Inc()
}

// IncStatusWriteDropped counts one dropped idempotency status write.
func (m *Metrics) IncStatusWriteDropped() {
	m.StatusWritesDropped.Inc()
}
