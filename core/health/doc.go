// Package health provides HTTP handlers for service health monitoring.
//
// Handlers:
//   - Liveness: Process is running (no dependency checks)
//   - Readiness: All dependencies are available
//   - NoContent: Returns 204 for minimal overhead
//
// Usage:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/health/live", health.Liveness)
//	mux.Handle("/health/ready", health.Readiness(logger, manager.Healthcheck))
//	mux.HandleFunc("/ping", health.NoContent)
//
// Dependency checks must follow func(context.Context) error signature,
// which event.Manager.Healthcheck already satisfies.
package health
