package event

import "time"

// Config holds the manager configuration.
// Designed for environment-based configuration using popular env parsing libraries.
type Config struct {
	PollInterval     time.Duration `env:"NOTIFY_POLL_INTERVAL" envDefault:"1s"`
	Dynamic          bool          `env:"NOTIFY_DYNAMIC" envDefault:"false"`
	IsolateListeners bool          `env:"NOTIFY_ISOLATE_LISTENERS" envDefault:"false"`
	MetricsNamespace string        `env:"NOTIFY_METRICS_NAMESPACE" envDefault:"notify"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		PollInterval:     DefaultPollInterval,
		MetricsNamespace: "notify",
	}
}

// NewManagerFromConfig creates a Manager from configuration.
// Additional options override config values.
func NewManagerFromConfig(cfg Config, opts ...ManagerOption) *Manager {
	allOpts := append([]ManagerOption{
		WithPollInterval(cfg.PollInterval),
		WithDynamic(cfg.Dynamic),
		WithIsolatedListeners(cfg.IsolateListeners),
	}, opts...)

	return NewManager(allOpts...)
}
