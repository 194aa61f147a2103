package event

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Work is a long-running task handed to a WorkScheduler.
// It must return when ctx is cancelled.
type Work func(ctx context.Context) error

// WorkScheduler runs background work on behalf of the Manager.
// The Manager never starts goroutines of its own; the embedding application
// decides where the dispatch loop runs.
type WorkScheduler interface {
	Schedule(work Work) error
}

// GroupScheduler is a WorkScheduler backed by an errgroup.
// All scheduled work shares one context; Shutdown cancels it and waits.
//
// Example:
//
//	scheduler := event.NewGroupScheduler(ctx)
//	defer scheduler.Shutdown()
//
//	if err := manager.Start(scheduler); err != nil {
//	    return err
//	}
type GroupScheduler struct {
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewGroupScheduler creates a scheduler whose work is cancelled together with ctx.
func NewGroupScheduler(ctx context.Context) *GroupScheduler {
	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)

	return &GroupScheduler{
		group:  group,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule starts work in a new goroutine.
func (s *GroupScheduler) Schedule(work Work) error {
	if work == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}

	s.group.Go(func() error {
		return work(s.ctx)
	})
	return nil
}

// Wait blocks until all scheduled work returned and reports the first error.
func (s *GroupScheduler) Wait() error {
	err := s.group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown rejects new work, cancels running work and waits for it to return.
func (s *GroupScheduler) Shutdown() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return s.Wait()
}
