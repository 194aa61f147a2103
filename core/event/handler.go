package event

import (
	"context"
	"sync/atomic"
)

const (
	enablementUnknown int32 = iota
	enablementOn
	enablementOff
)

// OptimisedHandler caches the enablement answer for one notification type.
// Hot producers keep one per type and call IsEnabled before constructing a
// notification.
//
// When the manager is static the first answer is memoized for the handler's
// lifetime. When it is dynamic every call is delegated.
type OptimisedHandler struct {
	manager *Manager
	typ     *Type
	state   atomic.Int32
}

// NewOptimisedHandler creates a handler for notifications of type t.
//
// Example:
//
//	failures := event.NewOptimisedHandler(manager, FailureNotification)
//	if failures.IsEnabled() {
//	    _ = failures.Fire(ctx, event.NewNotification(FailureNotification, ActionFailed))
//	}
func NewOptimisedHandler(m *Manager, t *Type) *OptimisedHandler {
	return &OptimisedHandler{manager: m, typ: t}
}

// Type returns the notification type this handler serves.
func (h *OptimisedHandler) Type() *Type {
	return h.typ
}

// IsEnabled reports whether notifications of the handler's type could reach a listener.
func (h *OptimisedHandler) IsEnabled() bool {
	if h.manager.IsDynamic() {
		return h.manager.IsEnabled(h.typ)
	}

	switch h.state.Load() {
	case enablementOn:
		return true
	case enablementOff:
		return false
	}

	enabled := h.manager.IsEnabled(h.typ)
	if enabled {
		h.state.Store(enablementOn)
	} else {
		h.state.Store(enablementOff)
	}
	return enabled
}

// Fire forwards n to the manager.
func (h *OptimisedHandler) Fire(ctx context.Context, n Notification) error {
	return h.manager.Fire(ctx, n)
}
