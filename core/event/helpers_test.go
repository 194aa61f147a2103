package event_test

import (
	"context"
	"sync"

	"github.com/dmitrymomot/notification/core/event"
)

// Shared hierarchy used across tests.
var (
	BaseNotification    = event.NewType("BaseNotification")
	DerivedNotification = event.NewType("DerivedNotification", event.Extends(BaseNotification))
	LeafNotification    = event.NewType("LeafNotification", event.Extends(DerivedNotification))
	OtherNotification   = event.NewType("OtherNotification")

	FailureNotification = event.NewType("FailureNotification", event.Blocking())

	BaseListener    = event.NewCapability("BaseListener")
	ErrorListener   = event.NewCapability("ErrorListener", BaseListener)
	UnboundListener = event.NewCapability("UnboundListener")
)

// recorder is a comparable listener that records every notification.
type recorder struct {
	caps []*event.Capability

	mu   sync.Mutex
	seen []event.Notification
	err  error
}

func newRecorder(caps ...*event.Capability) *recorder {
	return &recorder{caps: caps}
}

func (r *recorder) Capabilities() []*event.Capability {
	return r.caps
}

func (r *recorder) OnNotification(ctx context.Context, n event.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
	return r.err
}

func (r *recorder) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func (r *recorder) notifications() []event.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Notification(nil), r.seen...)
}

// uncomparableListener cannot be tracked by identity.
type uncomparableListener struct {
	caps []*event.Capability
}

func (l uncomparableListener) Capabilities() []*event.Capability { return l.caps }

func (l uncomparableListener) OnNotification(context.Context, event.Notification) error { return nil }
