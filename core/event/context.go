package event

import (
	"context"
	"time"
)

type notificationIDCtx struct{}

// WithNotificationID attaches a notification ID to the context.
func WithNotificationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, notificationIDCtx{}, id)
}

// NotificationID extracts the notification ID from the context.
// Returns empty string if not present.
func NotificationID(ctx context.Context) string {
	if id, ok := ctx.Value(notificationIDCtx{}).(string); ok {
		return id
	}
	return ""
}

type notificationTypeCtx struct{}

// WithNotificationType attaches the notification type name to the context.
func WithNotificationType(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, notificationTypeCtx{}, name)
}

// NotificationType extracts the notification type name from the context.
// Returns empty string if not present.
func NotificationType(ctx context.Context) string {
	if name, ok := ctx.Value(notificationTypeCtx{}).(string); ok {
		return name
	}
	return ""
}

type resourceIDCtx struct{}

// WithResourceIDContext attaches a resource identifier to the context.
func WithResourceIDContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, resourceIDCtx{}, id)
}

// ResourceID extracts the resource identifier from the context.
// Returns empty string if not present.
func ResourceID(ctx context.Context) string {
	if id, ok := ctx.Value(resourceIDCtx{}).(string); ok {
		return id
	}
	return ""
}

type notificationTimeCtx struct{}

// WithNotificationTime attaches the notification creation time to the context.
func WithNotificationTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, notificationTimeCtx{}, t)
}

// NotificationTime extracts the notification creation time from the context.
// Returns zero time if not present.
func NotificationTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(notificationTimeCtx{}).(time.Time); ok {
		return t
	}
	return time.Time{}
}

// WithNotificationMeta attaches ID, type name, resource identifier and
// creation time of n to the context.
func WithNotificationMeta(ctx context.Context, n Notification) context.Context {
	ctx = WithNotificationID(ctx, n.ID)
	ctx = WithNotificationType(ctx, n.TypeName())
	ctx = WithResourceIDContext(ctx, n.ResourceID)
	ctx = WithNotificationTime(ctx, n.CreatedAt)
	return ctx
}
