package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notification/core/config"
	"github.com/dmitrymomot/notification/core/event"
	"github.com/dmitrymomot/notification/core/health"
	"github.com/dmitrymomot/notification/core/logger"
)

var (
	ConnectorNotification = event.NewType("ConnectorNotification")
	ConnectorSynced       = event.NewType("ConnectorSynced", event.Extends(ConnectorNotification))
	FailureNotification   = event.NewType("FailureNotification", event.Blocking())
	ConnectorFailure      = event.NewType("ConnectorFailure", event.Extends(FailureNotification))

	ConnectorListener = event.NewCapability("ConnectorListener")
	ErrorListener     = event.NewCapability("ErrorListener")
)

const (
	actionSynced = iota + 1
	actionFailed
)

type options struct {
	producers   int
	count       int
	blocking    bool
	pattern     string
	logLevel    string
	json        bool
	metricsAddr string
	drain       time.Duration
}

func main() {
	event.RegisterAction(actionSynced, "synced")
	event.RegisterAction(actionFailed, "failed")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "notifybench",
		Short:         "Drive the notification manager with concurrent producers",
		Example:       "  notifybench --producers 8 --count 1000 --pattern 'connectors.*'",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.producers, "producers", 4, "Number of concurrent producers")
	flags.IntVar(&opts.count, "count", 1000, "Notifications fired by each producer")
	flags.BoolVar(&opts.blocking, "blocking", false, "Fire blocking failure notifications instead of queued ones")
	flags.StringVar(&opts.pattern, "pattern", "", "Subscription pattern for the connector listener (empty matches all)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flags.BoolVar(&opts.json, "json", false, "Emit JSON logs")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics and health probes on this address while running")
	flags.DurationVar(&opts.drain, "drain-timeout", 10*time.Second, "How long to wait for queued notifications to be delivered")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	if opts.producers < 1 || opts.count < 1 {
		return fmt.Errorf("producers and count must be positive")
	}

	var cfg event.Config
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logOpts := []logger.Option{
		logger.WithLevel(logger.ParseLevel(opts.logLevel)),
		logger.WithAttr(logger.Component("notifybench")),
		logger.WithContextExtractors(notificationIDExtractor),
	}
	if opts.json {
		logOpts = append(logOpts, logger.WithJSONFormatter())
	}
	log := logger.New(logOpts...)

	registry := prometheus.NewRegistry()
	metrics, err := event.NewMetrics(registry, cfg.MetricsNamespace)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	manager := event.NewManagerFromConfig(cfg,
		event.WithLogger(log),
		event.WithMetrics(metrics),
	)
	defer manager.Dispose()

	if opts.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		mux.HandleFunc("/health/live", health.Liveness)
		mux.Handle("/health/ready", health.Readiness(log, manager.Healthcheck))

		srv := &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", logger.Error(err))
			}
		}()
		defer srv.Close()
	}

	if err := wire(manager, opts.pattern, log); err != nil {
		return err
	}

	scheduler := event.NewGroupScheduler(ctx)
	defer scheduler.Shutdown()

	if err := manager.Start(scheduler); err != nil {
		return fmt.Errorf("failed to start notification manager: %w", err)
	}

	start := time.Now()
	produce(ctx, manager, opts, log)

	if err := drain(ctx, manager, opts.drain); err != nil {
		log.Warn("queue not drained", logger.Error(err))
	}

	stats := manager.Stats()
	log.Info("benchmark finished",
		logger.Elapsed(start),
		slog.Int64("fired", stats.NotificationsFired),
		slog.Int64("delivered", stats.NotificationsDelivered),
		slog.Int64("dropped", stats.NotificationsDropped),
		slog.Int64("failed", stats.DispatchesFailed),
		slog.Int("queued", stats.Queued),
		slog.Int("listeners", stats.Listeners))

	return nil
}

func wire(m *event.Manager, pattern string, log *slog.Logger) error {
	if err := m.BindAll(map[*event.Capability][]*event.Type{
		ConnectorListener: {ConnectorNotification},
		ErrorListener:     {FailureNotification},
	}); err != nil {
		return fmt.Errorf("failed to bind capabilities: %w", err)
	}

	connectors := event.NewListener(func(ctx context.Context, n event.Notification) error {
		log.DebugContext(ctx, "connector notification",
			logger.Type(n.TypeName()),
			slog.String("action", n.ActionName()),
			slog.String("resource_id", n.ResourceID))
		return nil
	}, ConnectorListener)

	failures := event.NewListener(func(ctx context.Context, n event.Notification) error {
		log.DebugContext(ctx, "failure notification",
			logger.Type(n.TypeName()),
			slog.String("resource_id", n.ResourceID))
		return nil
	}, ErrorListener)

	if err := m.RegisterListenerWithSubscription(connectors, pattern); err != nil {
		return fmt.Errorf("failed to register connector listener: %w", err)
	}
	if err := m.RegisterListener(failures); err != nil {
		return fmt.Errorf("failed to register failure listener: %w", err)
	}
	return nil
}

func produce(ctx context.Context, m *event.Manager, opts *options, log *slog.Logger) {
	typ, action := ConnectorSynced, actionSynced
	if opts.blocking {
		typ, action = ConnectorFailure, actionFailed
	}
	handler := event.NewOptimisedHandler(m, typ)

	var wg sync.WaitGroup
	for p := range opts.producers {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := range opts.count {
				if ctx.Err() != nil {
					return
				}
				if !handler.IsEnabled() {
					continue
				}
				n := event.NewNotification(typ, action,
					event.WithResourceID(fmt.Sprintf("connectors.p%d", p)),
					event.WithPayload(i))
				if err := handler.Fire(ctx, n); err != nil {
					log.ErrorContext(ctx, "fire failed", logger.Error(err))
				}
			}
		}(p)
	}
	wg.Wait()
}

func drain(ctx context.Context, m *event.Manager, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for m.Stats().Queued > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func notificationIDExtractor(ctx context.Context) (slog.Attr, bool) {
	id := event.NotificationID(ctx)
	if id == "" {
		return slog.Attr{}, false
	}
	return slog.String("notification_id", id), true
}
