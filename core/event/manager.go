package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/notification/core/logger"
)

// DefaultPollInterval bounds how long the dispatch loop waits for a queued
// notification before re-checking whether the manager was disposed.
const DefaultPollInterval = time.Second

// Manager routes fired notifications to registered listeners.
//
// Blocking notifications are delivered on the firing goroutine before Fire
// returns. All others are queued and delivered in FIFO order by a single
// background loop, which Start hands to a caller-supplied WorkScheduler.
type Manager struct {
	config atomic.Pointer[Configuration]
	queue  *notificationQueue

	mu        sync.Mutex
	scheduler WorkScheduler

	disposed atomic.Bool
	dynamic  atomic.Bool
	running  atomic.Bool

	isolate      bool
	pollInterval time.Duration
	logger       *slog.Logger
	metrics      *Metrics

	fired          atomic.Int64
	delivered      atomic.Int64
	dropped        atomic.Int64
	failed         atomic.Int64
	lastActivityAt atomic.Int64
}

// ManagerStats provides observability metrics for monitoring and debugging.
type ManagerStats struct {
	NotificationsFired     int64
	NotificationsDelivered int64 // listener invocations
	NotificationsDropped   int64
	DispatchesFailed       int64
	Queued                 int
	Listeners              int
	IsRunning              bool
	IsDisposed             bool
	LastActivityAt         time.Time
}

// NewManager creates a notification manager with the given options.
//
// Example:
//
//	manager := event.NewManager(
//	    event.WithLogger(logger),
//	    event.WithPollInterval(500*time.Millisecond),
//	)
//	defer manager.Dispose()
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		queue:        newNotificationQueue(),
		pollInterval: DefaultPollInterval,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(m)
	}

	cfg := NewConfiguration(WithConfigurationLogger(m.logger))
	cfg.onRebuild = func(p *Policy) {
		m.metrics.observeRebuild()
		m.logger.Debug("dispatch policy rebuilt",
			logger.Component("notification_manager"),
			slog.Int("types", len(p.entries)),
			slog.Int("senders", p.SenderCount()))
	}
	m.config.Store(cfg)

	return m
}

// configuration returns nil once the manager is disposed.
func (m *Manager) configuration() *Configuration {
	return m.config.Load()
}

// Bind declares that listeners implementing capability may receive
// notifications of type t and its refinements.
func (m *Manager) Bind(capability *Capability, t *Type) error {
	cfg := m.configuration()
	if cfg == nil {
		return nil
	}
	return cfg.AddBinding(capability, t)
}

// BindAll registers every binding of the map.
func (m *Manager) BindAll(bindings map[*Capability][]*Type) error {
	for c, types := range bindings {
		for _, t := range types {
			if err := m.Bind(c, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// RegisterListener registers l for every resource identifier.
func (m *Manager) RegisterListener(l Listener) error {
	return m.register(Pair{Listener: l, Subscription: MatchAll})
}

// RegisterListenerWithSubscription registers l for resource identifiers
// matching pattern (see NewSubscription).
func (m *Manager) RegisterListenerWithSubscription(l Listener, pattern string) error {
	return m.register(Pair{Listener: l, Subscription: NewSubscription(pattern)})
}

func (m *Manager) register(p Pair) error {
	cfg := m.configuration()
	if cfg == nil {
		m.logger.Debug("listener registration ignored, manager disposed",
			logger.Component("notification_manager"))
		return nil
	}
	return cfg.AddListener(p)
}

// UnregisterListener removes all registrations of l.
func (m *Manager) UnregisterListener(l Listener) {
	if cfg := m.configuration(); cfg != nil {
		cfg.RemoveListener(l)
	}
}

// UnregisterListeners removes all registrations of every listener in ls.
func (m *Manager) UnregisterListeners(ls ...Listener) {
	if cfg := m.configuration(); cfg != nil {
		cfg.RemoveListeners(ls...)
	}
}

// IsListenerRegistered reports whether l has at least one registration.
func (m *Manager) IsListenerRegistered(l Listener) bool {
	cfg := m.configuration()
	return cfg != nil && cfg.IsRegistered(l)
}

// Listeners returns the registered listener-subscription pairs.
func (m *Manager) Listeners() []Pair {
	cfg := m.configuration()
	if cfg == nil {
		return nil
	}
	return cfg.Listeners()
}

// DisableCapability stops delivery to capability and its refinements.
func (m *Manager) DisableCapability(capability *Capability) error {
	cfg := m.configuration()
	if cfg == nil {
		return nil
	}
	return cfg.DisableCapability(capability)
}

// DisableType stops delivery of t and its refinements.
func (m *Manager) DisableType(t *Type) error {
	cfg := m.configuration()
	if cfg == nil {
		return nil
	}
	return cfg.DisableType(t)
}

// IsEnabled reports whether a notification of type t, or a refinement of t,
// could reach a listener. Producers use it to skip building expensive
// payloads. It never returns a false negative and is false after Dispose.
func (m *Manager) IsEnabled(t *Type) bool {
	cfg := m.configuration()
	if cfg == nil {
		return false
	}
	return cfg.Policy().IsEnabled(t)
}

// SetDynamic marks the configuration as reconfigured at runtime.
// Optimised handlers stop memoizing enablement while dynamic is set.
func (m *Manager) SetDynamic(dynamic bool) {
	m.dynamic.Store(dynamic)
}

// IsDynamic reports whether enablement answers may change at runtime.
func (m *Manager) IsDynamic() bool {
	return m.dynamic.Load()
}

// Fire delivers n to matching listeners.
//
// A blocking notification is dispatched on the calling goroutine and the
// first listener error is returned (all errors joined when listeners are
// isolated). Any other notification is queued; an already cancelled ctx
// counts as an interrupted enqueue and its error is returned. After Dispose,
// Fire drops the notification and returns nil.
func (m *Manager) Fire(ctx context.Context, n Notification) error {
	if m.disposed.Load() {
		m.dropped.Add(1)
		m.metrics.observeDropped(reasonDisposed, 1)
		m.logger.WarnContext(ctx, "notification fired after dispose, dropping",
			logger.Component("notification_manager"),
			slog.String("notification_id", n.ID),
			slog.String("notification_type", n.TypeName()))
		return nil
	}

	if !n.Type.recognized() {
		return fmt.Errorf("%w: notification type %q is not recognized", ErrInvalidArgument, n.TypeName())
	}

	m.fired.Add(1)
	m.metrics.observeFired(n.Blocking())

	if n.Blocking() {
		return m.dispatch(ctx, n)
	}

	if err := ctx.Err(); err != nil {
		m.dropped.Add(1)
		m.metrics.observeDropped(reasonInterrupted, 1)
		if !m.disposed.Load() {
			m.logger.WarnContext(ctx, "notification enqueue interrupted",
				logger.Component("notification_manager"),
				slog.String("notification_id", n.ID),
				slog.String("notification_type", n.TypeName()),
				logger.Error(err))
		}
		return err
	}

	if err := m.queue.push(queued{ctx: context.WithoutCancel(ctx), n: n}); err != nil {
		// Lost the race with Dispose.
		m.dropped.Add(1)
		m.metrics.observeDropped(reasonDisposed, 1)
		return nil
	}
	m.metrics.setQueueDepth(m.queue.len())

	return nil
}

// dispatch resolves the current policy and delivers n through it.
func (m *Manager) dispatch(ctx context.Context, n Notification) error {
	cfg := m.configuration()
	if cfg == nil {
		return nil
	}

	delivered, err := cfg.Policy().dispatch(ctx, n, m.isolate)
	m.delivered.Add(int64(delivered))
	m.metrics.observeDelivered(delivered)
	m.lastActivityAt.Store(time.Now().Unix())

	if err != nil {
		m.failed.Add(1)
		m.metrics.observeFailed()
	}
	return err
}

// Start hands the background dispatch loop to scheduler.
func (m *Manager) Start(scheduler WorkScheduler) error {
	if scheduler == nil {
		return ErrSchedulerNil
	}
	if m.disposed.Load() {
		return ErrManagerDisposed
	}

	m.mu.Lock()
	if m.scheduler != nil {
		m.mu.Unlock()
		return ErrManagerAlreadyStarted
	}
	m.scheduler = scheduler
	m.mu.Unlock()

	if err := scheduler.Schedule(m.run); err != nil {
		m.mu.Lock()
		m.scheduler = nil
		m.mu.Unlock()
		return fmt.Errorf("failed to schedule dispatch loop: %w", err)
	}

	return nil
}

// Scheduler returns the WorkScheduler passed to Start, or nil.
func (m *Manager) Scheduler() WorkScheduler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scheduler
}

// run is the background dispatch loop. It exits when ctx is cancelled or the
// manager is disposed; items still queued at that point are discarded.
func (m *Manager) run(ctx context.Context) error {
	m.running.Store(true)
	defer m.running.Store(false)

	m.logger.InfoContext(ctx, "notification dispatch loop started",
		logger.Component("notification_manager"),
		slog.Duration("poll_interval", m.pollInterval))

	for {
		if m.disposed.Load() {
			m.logger.Info("notification dispatch loop stopped, manager disposed",
				logger.Component("notification_manager"))
			return nil
		}
		if ctx.Err() != nil {
			m.logger.Info("notification dispatch loop stopped",
				logger.Component("notification_manager"))
			return nil
		}

		item, ok := m.queue.poll(ctx, m.pollInterval)
		if !ok {
			continue
		}
		m.metrics.setQueueDepth(m.queue.len())
		m.deliverQueued(item)
	}
}

func (m *Manager) deliverQueued(item queued) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			m.failed.Add(1)
			m.metrics.observeFailed()
			m.logger.ErrorContext(item.ctx, "notification listener panicked",
				logger.Component("notification_manager"),
				slog.String("notification_id", item.n.ID),
				slog.String("notification_type", item.n.TypeName()),
				slog.Any("panic", r))
		}
	}()

	if err := m.dispatch(item.ctx, item.n); err != nil {
		m.logger.ErrorContext(item.ctx, "notification dispatch failed",
			logger.Component("notification_manager"),
			slog.String("notification_id", item.n.ID),
			slog.String("notification_type", item.n.TypeName()),
			logger.Duration(time.Since(start)),
			logger.Error(err))
		return
	}

	m.logger.DebugContext(item.ctx, "notification dispatched",
		logger.Component("notification_manager"),
		slog.String("notification_id", item.n.ID),
		slog.String("notification_type", item.n.TypeName()),
		logger.Duration(time.Since(start)))
}

// Dispose shuts the manager down. It is idempotent. Queued notifications are
// discarded, and every later call on the manager is a safe no-op.
func (m *Manager) Dispose() {
	if !m.disposed.CompareAndSwap(false, true) {
		return
	}

	m.config.Store(nil)
	discarded := m.queue.close()
	m.dropped.Add(int64(discarded))
	m.metrics.observeDropped(reasonDiscarded, discarded)
	m.metrics.setQueueDepth(0)

	m.logger.Info("notification manager disposed",
		logger.Component("notification_manager"),
		logger.Count("discarded", discarded))
}

// Stats returns current manager statistics.
func (m *Manager) Stats() ManagerStats {
	listeners := 0
	if cfg := m.configuration(); cfg != nil {
		listeners = len(cfg.current.Load().pairs)
	}

	var lastActivity time.Time
	if ts := m.lastActivityAt.Load(); ts > 0 {
		lastActivity = time.Unix(ts, 0)
	}

	return ManagerStats{
		NotificationsFired:     m.fired.Load(),
		NotificationsDelivered: m.delivered.Load(),
		NotificationsDropped:   m.dropped.Load(),
		DispatchesFailed:       m.failed.Load(),
		Queued:                 m.queue.len(),
		Listeners:              listeners,
		IsRunning:              m.running.Load(),
		IsDisposed:             m.disposed.Load(),
		LastActivityAt:         lastActivity,
	}
}

// Healthcheck validates that the manager is operational.
// Returns nil if healthy, or an error describing the health issue.
func (m *Manager) Healthcheck(ctx context.Context) error {
	if m.disposed.Load() {
		return errors.Join(ErrHealthcheckFailed, ErrManagerDisposed)
	}
	if !m.running.Load() {
		return errors.Join(ErrHealthcheckFailed, ErrManagerNotRunning)
	}
	return nil
}
