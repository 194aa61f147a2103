package event

import (
	"context"
	"fmt"
	"reflect"
)

// Listener observes notifications.
// Capabilities declares which listener interfaces it implements; the Manager
// only delivers notification types bound to one of them.
//
// Listeners are compared by identity when unregistering and when detecting
// duplicate registrations, so implementations must be comparable (typically a
// pointer).
type Listener interface {
	Capabilities() []*Capability
	OnNotification(ctx context.Context, n Notification) error
}

// ListenerFunc is the callback signature used by NewListener.
type ListenerFunc func(ctx context.Context, n Notification) error

// NewListener adapts a function into a Listener with the given capabilities.
// Each call returns a distinct identity.
//
// Example:
//
//	l := event.NewListener(func(ctx context.Context, n event.Notification) error {
//	    log.Println("failure on", n.ResourceID)
//	    return nil
//	}, ErrorListener)
func NewListener(fn ListenerFunc, caps ...*Capability) Listener {
	return &funcListener{
		fn:   fn,
		caps: append([]*Capability(nil), caps...),
	}
}

type funcListener struct {
	fn   ListenerFunc
	caps []*Capability
}

func (l *funcListener) Capabilities() []*Capability {
	return l.caps
}

func (l *funcListener) OnNotification(ctx context.Context, n Notification) error {
	if l.fn == nil {
		return nil
	}
	return l.fn(ctx, n)
}

// implements reports whether l declares c or a refinement of c.
func implements(l Listener, c *Capability) bool {
	for _, lc := range l.Capabilities() {
		if lc.IsRefinementOf(c) {
			return true
		}
	}
	return false
}

// validateListener rejects listeners that cannot be tracked by identity.
func validateListener(l Listener) error {
	if l == nil {
		return fmt.Errorf("%w: listener is nil", ErrInvalidArgument)
	}
	if !reflect.TypeOf(l).Comparable() {
		return fmt.Errorf("%w: listener %T is not comparable", ErrInvalidArgument, l)
	}
	return nil
}

// listenerName is used in log attributes.
func listenerName(l Listener) string {
	t := reflect.TypeOf(l)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
