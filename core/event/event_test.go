package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notification/core/event"
)

func TestNewNotification(t *testing.T) {
	t.Parallel()

	before := time.Now()
	n := event.NewNotification(DerivedNotification, 7,
		event.WithResourceID("orders.create"),
		event.WithPayload(map[string]int{"qty": 2}),
	)

	_, err := uuid.Parse(n.ID)
	require.NoError(t, err, "ID should be a UUID")
	assert.Same(t, DerivedNotification, n.Type)
	assert.Equal(t, 7, n.Action)
	assert.Equal(t, "orders.create", n.ResourceID)
	assert.Equal(t, map[string]int{"qty": 2}, n.Payload)
	assert.False(t, n.CreatedAt.Before(before))
	assert.Equal(t, "DerivedNotification", n.TypeName())
	assert.False(t, n.Blocking())

	other := event.NewNotification(DerivedNotification, 7)
	assert.NotEqual(t, n.ID, other.ID)
	assert.Empty(t, other.ResourceID)
}

func TestNotification_BlockingFromType(t *testing.T) {
	t.Parallel()

	assert.True(t, event.NewNotification(FailureNotification, 1).Blocking())
	assert.False(t, event.NewNotification(BaseNotification, 1).Blocking())
}

func TestActionName(t *testing.T) {
	t.Parallel()

	event.RegisterAction(9001, "connector started")

	assert.Equal(t, "connector started", event.ActionName(9001))
	assert.Equal(t, "connector started", event.NewNotification(BaseNotification, 9001).ActionName())
	assert.Equal(t, "9002", event.ActionName(9002))
}

func TestNotificationMetaContext(t *testing.T) {
	t.Parallel()

	n := event.NewNotification(BaseNotification, 1, event.WithResourceID("svc-1"))
	ctx := event.WithNotificationMeta(context.Background(), n)

	assert.Equal(t, n.ID, event.NotificationID(ctx))
	assert.Equal(t, "BaseNotification", event.NotificationType(ctx))
	assert.Equal(t, "svc-1", event.ResourceID(ctx))
	assert.Equal(t, n.CreatedAt, event.NotificationTime(ctx))

	empty := context.Background()
	assert.Empty(t, event.NotificationID(empty))
	assert.Empty(t, event.NotificationType(empty))
	assert.Empty(t, event.ResourceID(empty))
	assert.True(t, event.NotificationTime(empty).IsZero())
}
