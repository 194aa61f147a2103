// Package logger builds slog loggers and provides nil-safe attribute helpers.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/notification/core/logger"
//
//	log := logger.New(
//		logger.WithDevelopment("notifybench"),
//		logger.WithLevel(slog.LevelDebug),
//	)
//
//	log.Info("dispatch loop started",
//		logger.Component("notification_manager"),
//		logger.Duration(pollInterval),
//	)
//
// # Context Extractors
//
// Attributes can be derived from the context passed to the *Context log methods:
//
//	log := logger.New(
//		logger.WithProduction("myapp"),
//		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
//			if id := event.NotificationID(ctx); id != "" {
//				return slog.String("notification_id", id), true
//			}
//			return slog.Attr{}, false
//		}),
//	)
//
// # Nil Safety
//
// Error, Errors and ID return an empty slog.Attr for nil input, which slog
// drops, so callers never need to guard:
//
//	log.Error("dispatch failed", logger.Error(err))
package logger
