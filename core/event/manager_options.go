package event

import (
	"log/slog"
	"time"
)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger configures structured logging for manager operations.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPollInterval sets how long the dispatch loop waits for a queued
// notification before re-checking for disposal. Default is one second.
func WithPollInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// WithDynamic marks the configuration as reconfigured at runtime, so
// optimised handlers never memoize enablement.
func WithDynamic(dynamic bool) ManagerOption {
	return func(m *Manager) {
		m.dynamic.Store(dynamic)
	}
}

// WithIsolatedListeners keeps delivering a notification to the remaining
// listeners after one of them fails. By default the first failure aborts
// delivery of that notification.
func WithIsolatedListeners(isolate bool) ManagerOption {
	return func(m *Manager) {
		m.isolate = isolate
	}
}

// WithMetrics records manager activity in Prometheus collectors.
//
// Example:
//
//	metrics, err := event.NewMetrics(prometheus.DefaultRegisterer, "myapp")
//	if err != nil {
//	    return err
//	}
//	manager := event.NewManager(event.WithMetrics(metrics))
func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}
