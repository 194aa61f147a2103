package event

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports manager activity as Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	fired      *prometheus.CounterVec
	delivered  prometheus.Counter
	dropped    *prometheus.CounterVec
	failed     prometheus.Counter
	queueDepth prometheus.Gauge
	rebuilds   prometheus.Counter
}

// Label values for the fired and dropped counters.
const (
	modeBlocking = "blocking"
	modeQueued   = "queued"

	reasonDisposed    = "disposed"
	reasonInterrupted = "interrupted"
	reasonDiscarded   = "discarded"
)

// NewMetrics creates the collectors under namespace and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		fired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notifications",
				Name:      "fired_total",
				Help:      "Total number of notifications fired",
			},
			[]string{"mode"},
		),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "delivered_total",
			Help:      "Total number of listener invocations",
		}),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notifications",
				Name:      "dropped_total",
				Help:      "Total number of notifications dropped before dispatch",
			},
			[]string{"reason"},
		),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "failed_total",
			Help:      "Total number of dispatches that ended with a listener error or panic",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "queue_depth",
			Help:      "Notifications waiting for the background dispatch loop",
		}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "rebuilds_total",
			Help:      "Total number of dispatch policy rebuilds",
		}),
	}

	if reg == nil {
		return m, nil
	}

	var errs []error
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.fired, m.delivered, m.dropped, m.failed, m.queueDepth, m.rebuilds}
}

func (m *Metrics) observeFired(blocking bool) {
	if m == nil {
		return
	}
	mode := modeQueued
	if blocking {
		mode = modeBlocking
	}
	m.fired.WithLabelValues(mode).Inc()
}

func (m *Metrics) observeDelivered(n int) {
	if m == nil || n == 0 {
		return
	}
	m.delivered.Add(float64(n))
}

func (m *Metrics) observeDropped(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.dropped.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) observeFailed() {
	if m == nil {
		return
	}
	m.failed.Inc()
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) observeRebuild() {
	if m == nil {
		return
	}
	m.rebuilds.Inc()
}
