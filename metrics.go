package huefy

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teracrafts/huefy-go/internal/core"
)

// metrics feeds executor events into Prometheus collectors.
type metrics struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	attempts, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huefy_attempts_total",
			Help: "Total number of transport attempts",
		},
		[]string{"operation", "outcome"},
	))
	if err != nil {
		return nil, err
	}

	retries, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huefy_retries_total",
			Help: "Total number of scheduled retries",
		},
		[]string{"operation", "kind"},
	))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "huefy_operation_duration_seconds",
			Help:    "Operation latency in seconds, including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "result"},
	))
	if err != nil {
		return nil, err
	}

	return &metrics{attempts: attempts, retries: retries, duration: duration}, nil
}

// register reuses collectors already registered by another client on the
// same registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) ObserveAttempt(op core.OperationKind, _ int, err *core.Error) {
	outcome := "success"
	if err != nil {
		outcome = string(err.Kind)
	}
	m.attempts.WithLabelValues(string(op), outcome).Inc()
}

func (m *metrics) ObserveRetry(op core.OperationKind, kind core.ErrorKind, _ time.Duration) {
	m.retries.WithLabelValues(string(op), string(kind)).Inc()
}

func (m *metrics) ObserveResult(op core.OperationKind, _ int, elapsed time.Duration, err error) {
	result := "success"
	if err != nil {
		result = string(core.KindOf(err))
	}
	m.duration.WithLabelValues(string(op), result).Observe(elapsed.Seconds())
}
