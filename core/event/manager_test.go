package event_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notification/core/event"
)

func startManager(t *testing.T, opts ...event.ManagerOption) *event.Manager {
	t.Helper()

	opts = append([]event.ManagerOption{event.WithPollInterval(10 * time.Millisecond)}, opts...)
	m := event.NewManager(opts...)

	scheduler := event.NewGroupScheduler(context.Background())
	require.NoError(t, m.Start(scheduler))
	t.Cleanup(func() {
		m.Dispose()
		_ = scheduler.Shutdown()
	})

	require.Eventually(t, func() bool {
		return m.Stats().IsRunning
	}, time.Second, 5*time.Millisecond, "dispatch loop should start")

	return m
}

func TestManager_BlockingFailureExample(t *testing.T) {
	t.Parallel()

	m := event.NewManager()
	defer m.Dispose()

	l := newRecorder(ErrorListener)
	require.NoError(t, m.Bind(ErrorListener, FailureNotification))
	require.NoError(t, m.RegisterListener(l))

	n := event.NewNotification(FailureNotification, 1, event.WithResourceID("svc-1"))
	require.NoError(t, m.Fire(context.Background(), n))

	// No dispatch loop is running: a blocking notification is delivered inline.
	require.Equal(t, 1, l.count(), "listener must observe it before Fire returns")
	assert.Equal(t, "svc-1", l.notifications()[0].ResourceID)

	require.NoError(t, m.DisableType(FailureNotification))
	require.NoError(t, m.Fire(context.Background(), event.NewNotification(FailureNotification, 1)))

	assert.Equal(t, 1, l.count(), "disabled type must not be delivered")
	assert.False(t, m.IsEnabled(FailureNotification))
}

func TestManager_BlockingReturnsListenerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	m := event.NewManager()
	defer m.Dispose()

	l := newRecorder(ErrorListener)
	l.failWith(boom)
	require.NoError(t, m.Bind(ErrorListener, FailureNotification))
	require.NoError(t, m.RegisterListener(l))

	err := m.Fire(context.Background(), event.NewNotification(FailureNotification, 1))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), m.Stats().DispatchesFailed)
}

func TestManager_IsolatedListeners(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	m := event.NewManager(event.WithIsolatedListeners(true))
	defer m.Dispose()

	failing := newRecorder(ErrorListener)
	failing.failWith(boom)
	healthy := newRecorder(ErrorListener)

	require.NoError(t, m.Bind(ErrorListener, FailureNotification))
	require.NoError(t, m.RegisterListener(failing))
	require.NoError(t, m.RegisterListener(healthy))

	err := m.Fire(context.Background(), event.NewNotification(FailureNotification, 1))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, healthy.count(), "later listeners still run")
}

func TestManager_QueuedDelivery(t *testing.T) {
	t.Parallel()

	m := startManager(t)

	l := newRecorder(ErrorListener)
	require.NoError(t, m.Bind(ErrorListener, BaseNotification))
	require.NoError(t, m.RegisterListenerWithSubscription(l, "orders.*"))

	ctx := context.Background()
	require.NoError(t, m.Fire(ctx, event.NewNotification(DerivedNotification, 1, event.WithResourceID("orders.create"))))
	require.NoError(t, m.Fire(ctx, event.NewNotification(DerivedNotification, 2, event.WithResourceID("users.create"))))
	require.NoError(t, m.Fire(ctx, event.NewNotification(DerivedNotification, 3, event.WithResourceID("Orders.Delete"))))

	require.Eventually(t, func() bool {
		return l.count() == 2
	}, 2*time.Second, 10*time.Millisecond)

	// Give the loop a chance to deliver anything unexpected.
	time.Sleep(50 * time.Millisecond)
	got := l.notifications()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Action)
	assert.Equal(t, 3, got[1].Action)
}

type sequenced struct {
	producer int
	seq      int
}

func TestManager_ConcurrentProducersFIFO(t *testing.T) {
	t.Parallel()

	m := startManager(t)

	const producers = 10
	const perProducer = 100

	var (
		mu  sync.Mutex
		got []sequenced
	)
	l := event.NewListener(func(ctx context.Context, n event.Notification) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, n.Payload.(sequenced))
		return nil
	}, ErrorListener)

	require.NoError(t, m.Bind(ErrorListener, BaseNotification))
	require.NoError(t, m.RegisterListener(l))

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := range perProducer {
				n := event.NewNotification(BaseNotification, 0, event.WithPayload(sequenced{producer: p, seq: i}))
				assert.NoError(t, m.Fire(context.Background(), n))
			}
		}(p)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == producers*perProducer
	}, 5*time.Second, 10*time.Millisecond, "all notifications should be delivered")

	mu.Lock()
	defer mu.Unlock()

	last := make(map[int]int)
	for p := range producers {
		last[p] = -1
	}
	for _, s := range got {
		require.Greater(t, s.seq, last[s.producer], "producer %d delivered out of order", s.producer)
		last[s.producer] = s.seq
	}

	stats := m.Stats()
	assert.Equal(t, int64(producers*perProducer), stats.NotificationsFired)
	assert.Equal(t, int64(producers*perProducer), stats.NotificationsDelivered)
}

func TestManager_ConcurrentRegistrationWhileFiring(t *testing.T) {
	t.Parallel()

	m := startManager(t)
	require.NoError(t, m.Bind(ErrorListener, BaseNotification))
	require.NoError(t, m.Bind(ErrorListener, FailureNotification))

	stable := newRecorder(ErrorListener)
	require.NoError(t, m.RegisterListener(stable))

	var wg sync.WaitGroup
	for w := range 5 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := range 50 {
				l := newRecorder(ErrorListener)
				assert.NoError(t, m.RegisterListenerWithSubscription(l, fmt.Sprintf("w%d-%d", w, i)))
				m.UnregisterListener(l)
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				assert.NoError(t, m.Fire(context.Background(), event.NewNotification(BaseNotification, 0)))
				assert.NoError(t, m.Fire(context.Background(), event.NewNotification(FailureNotification, 0)))
				_ = m.IsEnabled(BaseNotification)
			}
		}()
	}
	wg.Wait()

	listeners := m.Listeners()
	require.Len(t, listeners, 1)
	assert.Same(t, stable, listeners[0].Listener)

	require.Eventually(t, func() bool {
		return stable.count() == 5*50*2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestManager_Dispose(t *testing.T) {
	t.Parallel()

	m := event.NewManager(event.WithPollInterval(10 * time.Millisecond))
	l := newRecorder(ErrorListener)
	require.NoError(t, m.Bind(ErrorListener, BaseNotification))
	require.NoError(t, m.RegisterListener(l))

	// Not started: items stay queued until dispose discards them.
	require.NoError(t, m.Fire(context.Background(), event.NewNotification(BaseNotification, 0)))
	require.NoError(t, m.Fire(context.Background(), event.NewNotification(BaseNotification, 0)))
	assert.Equal(t, 2, m.Stats().Queued)

	m.Dispose()
	m.Dispose()

	stats := m.Stats()
	assert.True(t, stats.IsDisposed)
	assert.Equal(t, 0, stats.Queued)
	assert.Equal(t, int64(2), stats.NotificationsDropped)

	assert.NotPanics(t, func() {
		assert.NoError(t, m.Fire(context.Background(), event.NewNotification(BaseNotification, 0)))
		assert.NoError(t, m.Fire(context.Background(), event.NewNotification(FailureNotification, 0)))
		assert.NoError(t, m.RegisterListener(newRecorder(ErrorListener)))
		assert.NoError(t, m.Bind(ErrorListener, OtherNotification))
		assert.NoError(t, m.DisableType(BaseNotification))
		assert.NoError(t, m.DisableCapability(ErrorListener))
		m.UnregisterListener(l)
		assert.False(t, m.IsEnabled(BaseNotification))
		assert.False(t, m.IsListenerRegistered(l))
		assert.Nil(t, m.Listeners())
	})

	assert.Equal(t, 0, l.count())
	assert.ErrorIs(t, m.Start(event.NewGroupScheduler(context.Background())), event.ErrManagerDisposed)
	assert.ErrorIs(t, m.Healthcheck(context.Background()), event.ErrManagerDisposed)
}

func TestManager_DisposeStopsLoop(t *testing.T) {
	t.Parallel()

	m := event.NewManager(event.WithPollInterval(10 * time.Millisecond))
	scheduler := event.NewGroupScheduler(context.Background())
	defer scheduler.Shutdown()

	require.NoError(t, m.Start(scheduler))
	require.Eventually(t, func() bool { return m.Stats().IsRunning }, time.Second, 5*time.Millisecond)
	require.NoError(t, m.Healthcheck(context.Background()))

	m.Dispose()

	done := make(chan error, 1)
	go func() { done <- scheduler.Wait() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop did not exit after dispose")
	}
	assert.False(t, m.Stats().IsRunning)
}

func TestManager_Start(t *testing.T) {
	t.Parallel()

	m := event.NewManager()
	defer m.Dispose()

	assert.ErrorIs(t, m.Start(nil), event.ErrSchedulerNil)
	assert.ErrorIs(t, m.Healthcheck(context.Background()), event.ErrManagerNotRunning)

	closed := event.NewGroupScheduler(context.Background())
	require.NoError(t, closed.Shutdown())
	require.ErrorIs(t, m.Start(closed), event.ErrSchedulerClosed)
	assert.Nil(t, m.Scheduler(), "failed start leaves the manager unstarted")

	scheduler := event.NewGroupScheduler(context.Background())
	defer scheduler.Shutdown()

	require.NoError(t, m.Start(scheduler))
	assert.Same(t, scheduler, m.Scheduler())
	assert.ErrorIs(t, m.Start(scheduler), event.ErrManagerAlreadyStarted)
}

func TestManager_FireCancelledContext(t *testing.T) {
	t.Parallel()

	m := event.NewManager()
	defer m.Dispose()

	l := newRecorder(ErrorListener)
	require.NoError(t, m.Bind(ErrorListener, BaseNotification))
	require.NoError(t, m.RegisterListener(l))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Fire(ctx, event.NewNotification(BaseNotification, 0))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.Stats().Queued)
	assert.Equal(t, int64(1), m.Stats().NotificationsDropped)
}

func TestManager_FireInvalidType(t *testing.T) {
	t.Parallel()

	m := event.NewManager()
	defer m.Dispose()

	err := m.Fire(context.Background(), event.Notification{ID: "x"})
	require.ErrorIs(t, err, event.ErrInvalidArgument)
}

func TestManager_RegistrationValidation(t *testing.T) {
	t.Parallel()

	m := event.NewManager()
	defer m.Dispose()

	assert.ErrorIs(t, m.Bind(nil, BaseNotification), event.ErrInvalidArgument)
	assert.ErrorIs(t, m.RegisterListener(nil), event.ErrInvalidArgument)
	assert.ErrorIs(t, m.RegisterListener(uncomparableListener{}), event.ErrInvalidArgument)
	assert.ErrorIs(t, m.DisableType(&event.Type{}), event.ErrInvalidArgument)

	l := newRecorder(ErrorListener)
	require.NoError(t, m.RegisterListener(l))
	require.NoError(t, m.RegisterListener(l), "duplicate is a logged no-op")
	assert.Len(t, m.Listeners(), 1)

	require.NoError(t, m.BindAll(map[*event.Capability][]*event.Type{
		ErrorListener: {BaseNotification, OtherNotification},
	}))
	assert.True(t, m.IsEnabled(OtherNotification))

	m.UnregisterListeners(l)
	assert.False(t, m.IsListenerRegistered(l))
	assert.False(t, m.IsEnabled(OtherNotification))
}

func TestManager_QueuedListenerPanicDoesNotStopLoop(t *testing.T) {
	t.Parallel()

	m := startManager(t)

	var calls atomic.Int32
	l := event.NewListener(func(ctx context.Context, n event.Notification) error {
		if calls.Add(1) == 1 {
			panic("listener exploded")
		}
		return nil
	}, ErrorListener)

	require.NoError(t, m.Bind(ErrorListener, BaseNotification))
	require.NoError(t, m.RegisterListener(l))

	require.NoError(t, m.Fire(context.Background(), event.NewNotification(BaseNotification, 0)))
	require.NoError(t, m.Fire(context.Background(), event.NewNotification(BaseNotification, 0)))

	require.Eventually(t, func() bool {
		return calls.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return m.Stats().DispatchesFailed == 1
	}, time.Second, 10*time.Millisecond)
	assert.True(t, m.Stats().IsRunning)
}

func TestNewManagerFromConfig(t *testing.T) {
	t.Parallel()

	cfg := event.DefaultConfig()
	cfg.Dynamic = true
	cfg.IsolateListeners = true

	m := event.NewManagerFromConfig(cfg)
	defer m.Dispose()
	assert.True(t, m.IsDynamic())

	override := event.NewManagerFromConfig(cfg, event.WithDynamic(false))
	defer override.Dispose()
	assert.False(t, override.IsDynamic(), "options override config values")

	empty := event.NewManagerFromConfig(event.Config{})
	defer empty.Dispose()
	assert.False(t, empty.IsDynamic())
}
