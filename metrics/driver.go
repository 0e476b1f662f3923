// Package metrics provides Prometheus collectors for the quorum core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quorumlab/stakequorum/quorumdriver"
)

const (
	namespace       = "stakequorum"
	subsystemDriver = "quorumdriver"
)

// DriverCollector implements quorumdriver.Metrics on top of Prometheus.
type DriverCollector struct {
	requestsReceived       prometheus.Counter
	requestsInflight       prometheus.Gauge
	certificatesProduced   prometheus.Counter
	requestsFailed         *prometheus.CounterVec
	conflictRetries        prometheus.Counter
	conflictRetrySuccesses prometheus.Counter
	conflictRetryFinalized prometheus.Counter
	submissionDuration     prometheus.Histogram
}

var _ quorumdriver.Metrics = (*DriverCollector)(nil)

// NewDriverCollector creates the driver collectors and registers them with
// the given registerer.
func NewDriverCollector(registerer prometheus.Registerer) *DriverCollector {
	c := &DriverCollector{
		requestsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDriver,
			Name:      "requests_received_total",
			Help:      "number of transactions submitted to the driver",
		}),
		requestsInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemDriver,
			Name:      "inflight_requests",
			Help:      "number of submissions currently being driven",
		}),
		certificatesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDriver,
			Name:      "certificates_produced_total",
			Help:      "number of submissions that reached a quorum certificate",
		}),
		requestsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDriver,
			Name:      "requests_failed_total",
			Help:      "number of failed submissions by failure kind",
		}, []string{"reason"}),
		conflictRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDriver,
			Name:      "conflict_retries_total",
			Help:      "number of retries against conflicting transactions",
		}),
		conflictRetrySuccesses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDriver,
			Name:      "conflict_retry_successes_total",
			Help:      "number of conflict retries that produced a certificate",
		}),
		conflictRetryFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDriver,
			Name:      "conflict_retry_already_finalized_total",
			Help:      "number of conflict retries whose target was already certified",
		}),
		submissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemDriver,
			Name:      "submission_duration_seconds",
			Help:      "duration of successful submissions, conflict retries included",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	registerer.MustRegister(
		c.requestsReceived,
		c.requestsInflight,
		c.certificatesProduced,
		c.requestsFailed,
		c.conflictRetries,
		c.conflictRetrySuccesses,
		c.conflictRetryFinalized,
		c.submissionDuration,
	)
	return c
}

func (c *DriverCollector) RequestReceived() {
	c.requestsReceived.Inc()
}

func (c *DriverCollector) RequestInflight(delta int) {
	c.requestsInflight.Add(float64(delta))
}

func (c *DriverCollector) CertificateProduced(took time.Duration) {
	c.certificatesProduced.Inc()
	c.submissionDuration.Observe(took.Seconds())
}

func (c *DriverCollector) RequestFailed(reason string) {
	c.requestsFailed.WithLabelValues(reason).Inc()
}

func (c *DriverCollector) ConflictRetry() {
	c.conflictRetries.Inc()
}

func (c *DriverCollector) ConflictRetrySucceeded() {
	c.conflictRetrySuccesses.Inc()
}

func (c *DriverCollector) ConflictRetryAlreadyFinalized() {
	c.conflictRetryFinalized.Inc()
}
