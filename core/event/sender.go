package event

import "context"

// Sender delivers notifications to one listener-subscription pair.
// It performs no error handling: listener errors and panics reach the caller.
type Sender struct {
	pair Pair
}

func newSender(p Pair) *Sender {
	return &Sender{pair: p}
}

// Pair returns the pair the sender delivers to.
func (s *Sender) Pair() Pair {
	return s.pair
}

// Accepts reports whether the subscription admits the notification.
func (s *Sender) Accepts(n Notification) bool {
	return s.pair.Subscription.Matches(n.ResourceID)
}

// Dispatch invokes the listener when the subscription admits the notification.
// The returned bool reports whether the listener was invoked.
func (s *Sender) Dispatch(ctx context.Context, n Notification) (bool, error) {
	if !s.Accepts(n) {
		return false, nil
	}
	return true, s.pair.Listener.OnNotification(WithNotificationMeta(ctx, n), n)
}
