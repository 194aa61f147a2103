// Package event provides an in-process, type-hierarchy-aware notification engine.
// Producers fire notifications; listeners receive every notification whose type
// refines a type bound to one of their capabilities and whose resource identifier
// matches their subscription.
//
// # Core Components
//
// Type is a notification category. Types form a tree: a type created with
// Extends refines its parent, and a listener bound to the parent also receives
// the child. A type marked Blocking, and every type extending it, is delivered
// synchronously on the firing goroutine.
//
// Capability is a named listener interface. Capabilities may refine several
// parents. A listener implements a capability when one of the capabilities it
// declares refines it.
//
// Notification is an immutable value carrying an ID, a Type, an integer action
// code, an optional resource identifier and an opaque payload.
//
// Configuration holds capability bindings, listener registrations and disabled
// capabilities or types. Every change publishes a new immutable snapshot; each
// snapshot derives its dispatch Policy lazily, exactly once.
//
// Manager owns the configuration and the delivery queue. Non-blocking
// notifications are queued and delivered in FIFO order by a single background
// loop, which Start hands to a WorkScheduler.
//
// OptimisedHandler memoizes IsEnabled for one type so hot producers can skip
// building notifications nobody listens to.
//
// # Basic Usage
//
//	import (
//		"context"
//		"log/slog"
//		"os"
//
//		"github.com/dmitrymomot/notification/core/event"
//	)
//
//	var (
//		FailureNotification = event.NewType("FailureNotification", event.Blocking())
//		ConnectorFailure    = event.NewType("ConnectorFailure", event.Extends(FailureNotification))
//
//		ErrorListener = event.NewCapability("ErrorListener")
//	)
//
//	func main() {
//		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//
//		manager := event.NewManager(event.WithLogger(logger))
//		defer manager.Dispose()
//
//		_ = manager.Bind(ErrorListener, FailureNotification)
//		_ = manager.RegisterListenerWithSubscription(
//			event.NewListener(func(ctx context.Context, n event.Notification) error {
//				logger.Error("connector failed", "resource", n.ResourceID)
//				return nil
//			}, ErrorListener),
//			"connectors.*",
//		)
//
//		scheduler := event.NewGroupScheduler(context.Background())
//		defer scheduler.Shutdown()
//
//		if err := manager.Start(scheduler); err != nil {
//			logger.Error("failed to start notification manager", "error", err)
//			return
//		}
//
//		n := event.NewNotification(ConnectorFailure, 1, event.WithResourceID("connectors.s3"))
//		if err := manager.Fire(context.Background(), n); err != nil {
//			logger.Error("listener failed", "error", err)
//		}
//	}
//
// # Subscriptions
//
// A subscription pattern is a comma separated list of glob terms matched
// case-insensitively against the resource identifier. An empty pattern matches
// everything, including notifications without a resource identifier; any other
// pattern never matches a notification without one.
//
// # Listener Failures
//
// By default the first listener error aborts delivery of that notification to
// the remaining listeners and is returned from Fire for blocking notifications.
// WithIsolatedListeners delivers to every listener and joins the errors.
// Panics raised by listeners of blocking notifications reach the caller; the
// background loop recovers and logs them.
//
// # Context Metadata
//
// Listeners receive a context carrying the notification metadata:
//
//	func (l *auditListener) OnNotification(ctx context.Context, n event.Notification) error {
//		l.logger.InfoContext(ctx, "audit",
//			"notification_id", event.NotificationID(ctx),
//			"notification_type", event.NotificationType(ctx),
//			"resource_id", event.ResourceID(ctx))
//		return nil
//	}
//
// # Observability and Health Checks
//
//	stats := manager.Stats()
//	logger.Info("notification stats",
//		"fired", stats.NotificationsFired,
//		"delivered", stats.NotificationsDelivered,
//		"dropped", stats.NotificationsDropped,
//		"queued", stats.Queued)
//
//	if err := manager.Healthcheck(ctx); err != nil {
//		logger.Error("notification manager unhealthy", "error", err)
//	}
//
// Prometheus collectors are attached with WithMetrics.
//
// # Thread Safety
//
// All components are safe for concurrent use. Registration calls are
// serialized; Fire and IsEnabled never take the registration lock. After
// Dispose every method is a safe no-op and IsEnabled returns false.
package event
