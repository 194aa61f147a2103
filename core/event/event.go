package event

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification is an immutable event record flowing through the Manager.
// Pass it by value; the engine never mutates it.
type Notification struct {
	ID         string    `json:"id"`          // Unique identifier for the notification
	Type       *Type     `json:"-"`           // Concrete notification type
	Action     int       `json:"action"`      // Producer-defined action code
	ResourceID string    `json:"resource_id"` // Resource the notification is about; empty when absent
	Payload    any       `json:"payload"`     // Source object, opaque to the engine
	CreatedAt  time.Time `json:"created_at"`  // When the notification was created
}

// NotificationOption configures a Notification at construction.
type NotificationOption func(*Notification)

// WithResourceID sets the resource identifier matched against subscriptions.
func WithResourceID(id string) NotificationOption {
	return func(n *Notification) {
		n.ResourceID = id
	}
}

// WithPayload attaches the source object.
func WithPayload(payload any) NotificationOption {
	return func(n *Notification) {
		n.Payload = payload
	}
}

// NewNotification creates a Notification with auto-generated ID and timestamp.
//
// Example:
//
//	n := event.NewNotification(FailureNotification, ActionFailed,
//	    event.WithResourceID("svc-1"),
//	)
func NewNotification(t *Type, action int, opts ...NotificationOption) Notification {
	n := Notification{
		ID:        uuid.New().String(),
		Type:      t,
		Action:    action,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&n)
	}

	return n
}

// Blocking reports whether the notification must be delivered before Fire returns.
func (n Notification) Blocking() bool {
	return n.Type.IsBlocking()
}

// TypeName returns the name of the notification type.
func (n Notification) TypeName() string {
	return n.Type.Name()
}

// ActionName returns the registered name of the action code.
func (n Notification) ActionName() string {
	return ActionName(n.Action)
}

var actions = struct {
	sync.RWMutex
	names map[int]string
}{names: make(map[int]string)}

// RegisterAction assigns a human-readable name to an action code.
// Later registrations of the same code overwrite earlier ones.
func RegisterAction(code int, name string) {
	actions.Lock()
	defer actions.Unlock()
	actions.names[code] = name
}

// ActionName returns the name registered for code, or the decimal code itself.
func ActionName(code int) string {
	actions.RLock()
	name, ok := actions.names[code]
	actions.RUnlock()

	if ok {
		return name
	}
	return strconv.Itoa(code)
}
