package event

import "errors"

var (
	// ErrInvalidArgument is returned when a registration call receives a nil or
	// unrecognized type, capability or listener.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrManagerDisposed is returned when attempting to start a disposed manager.
	ErrManagerDisposed = errors.New("notification manager disposed")

	// ErrManagerAlreadyStarted is returned when the dispatch loop was already handed to a scheduler.
	ErrManagerAlreadyStarted = errors.New("notification manager already started")

	// ErrManagerNotRunning indicates the dispatch loop is not running.
	ErrManagerNotRunning = errors.New("notification manager is not running")

	// ErrSchedulerNil is returned when Start receives a nil scheduler.
	ErrSchedulerNil = errors.New("work scheduler is nil")

	// ErrSchedulerClosed is returned when work is scheduled after shutdown.
	ErrSchedulerClosed = errors.New("work scheduler is closed")

	// ErrHealthcheckFailed is returned when the manager is not operational.
	ErrHealthcheckFailed = errors.New("healthcheck failed")

	errQueueClosed = errors.New("notification queue closed")
)
