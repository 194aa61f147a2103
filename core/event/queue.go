package event

import (
	"context"
	"sync"
	"time"
)

// queued is a notification waiting for the background loop.
type queued struct {
	ctx context.Context
	n   Notification
}

// notificationQueue is an unbounded multi-producer, single-consumer FIFO.
// Push never blocks; poll waits at most the given timeout.
type notificationQueue struct {
	mu     sync.Mutex
	items  []queued
	signal chan struct{}
	closed bool
}

func newNotificationQueue() *notificationQueue {
	return &notificationQueue{
		signal: make(chan struct{}, 1),
	}
}

func (q *notificationQueue) push(item queued) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errQueueClosed
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// poll returns the oldest item, or false when the timeout elapsed, the context
// was cancelled or the queue was closed.
func (q *notificationQueue) poll(ctx context.Context, timeout time.Duration) (queued, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = queued{}
			q.items = q.items[1:]
			if len(q.items) == 0 {
				q.items = nil
			}
			q.mu.Unlock()
			return item, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return queued{}, false
		}

		select {
		case <-q.signal:
		case <-timer.C:
			return queued{}, false
		case <-ctx.Done():
			return queued{}, false
		}
	}
}

// close discards pending items and rejects further pushes.
// It returns the number of discarded items.
func (q *notificationQueue) close() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0
	}
	q.closed = true
	discarded := len(q.items)
	q.items = nil

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return discarded
}

func (q *notificationQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
