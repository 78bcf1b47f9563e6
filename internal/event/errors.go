package event

import (
	"errors"
	"fmt"
)

// ErrHandlerPanic matches any PanicError via errors.Is.
var ErrHandlerPanic = errors.New("event handler panicked")

// HandlerError describes a handler that returned an error during dispatch.
// It is reported through the bus logger and failure handler; it is never
// returned to the publisher.
type HandlerError struct {
	// SubscriptionID identifies the offending subscription.
	SubscriptionID SubscriptionID

	// EventType is the payload type being dispatched.
	EventType string

	// Err is the error the handler returned.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %d failed for event %s: %v", e.SubscriptionID, e.EventType, e.Err)
}

// Unwrap returns the handler's error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError describes a handler that panicked during dispatch.
type PanicError struct {
	// SubscriptionID identifies the offending subscription.
	SubscriptionID SubscriptionID

	// EventType is the payload type being dispatched.
	EventType string

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace captured at recovery.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler %d panicked for event %s: %v", e.SubscriptionID, e.EventType, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
