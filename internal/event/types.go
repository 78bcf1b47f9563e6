package event

import "time"

// Priority determines handler execution order within one publish call.
// Higher values execute first. Values are spaced so consumers can slot
// custom priorities between the named tiers.
type Priority int

const (
	// PriorityLowest is for handlers that must observe the final state,
	// after every other consumer has run.
	PriorityLowest Priority = 0

	// PriorityLow is for metrics and diagnostics handlers that run late.
	PriorityLow Priority = 100

	// PriorityNormal is the default priority for systems, scripts, and mods.
	PriorityNormal Priority = 200

	// PriorityHigh is for map streaming and UI handlers.
	PriorityHigh Priority = 300

	// PriorityCritical is for movement and core engine handlers that must
	// run first.
	PriorityCritical Priority = 400
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p >= PriorityCritical:
		return "critical"
	case p >= PriorityHigh:
		return "high"
	case p >= PriorityNormal:
		return "normal"
	case p >= PriorityLow:
		return "low"
	default:
		return "lowest"
	}
}

// ParsePriority parses a priority name. Unknown names report ok=false
// alongside the default priority.
func ParsePriority(s string) (Priority, bool) {
	switch s {
	case "critical":
		return PriorityCritical, true
	case "high":
		return PriorityHigh, true
	case "normal":
		return PriorityNormal, true
	case "low":
		return PriorityLow, true
	case "lowest":
		return PriorityLowest, true
	default:
		return PriorityNormal, false
	}
}

// SubscriptionID identifies a single subscription. IDs are issued
// monotonically and never reused; the zero value is never issued, so it is
// safe to use as "no subscription".
type SubscriptionID uint64

// Handler is a callback registered for one event payload type.
// A returned error is logged and isolated; it never reaches the publisher.
type Handler[T any] func(T) error

// Cancellable is the capability an event payload implements to participate
// in the two-phase pre/post protocol. Cancellation is one-way: once set,
// the flag is never cleared within the same publish call.
type Cancellable interface {
	Cancel()
	IsCancelled() bool
}

// CancelState is an embeddable implementation of Cancellable.
// Events embedding it must be published by pointer so later handlers
// observe the flag set by earlier ones.
type CancelState struct {
	cancelled bool
}

// Cancel marks the event cancelled. There is no way to clear the flag.
func (c *CancelState) Cancel() {
	c.cancelled = true
}

// IsCancelled reports whether the event has been cancelled.
func (c *CancelState) IsCancelled() bool {
	return c.cancelled
}

// Meta carries publisher-side bookkeeping attached to catalog events.
// Hint is the publisher's own priority note; dispatch order is governed by
// each subscriber's priority, never by the event.
type Meta struct {
	Timestamp time.Time
	Hint      Priority
}

// NewMeta creates event metadata stamped with the current time.
func NewMeta(hint Priority) Meta {
	return Meta{Timestamp: time.Now(), Hint: hint}
}

// Stats contains event bus counters.
type Stats struct {
	// EventsPublished is the total number of publish calls dispatched.
	EventsPublished uint64

	// EventsCancelled is the number of cancellable publishes halted by a
	// handler.
	EventsCancelled uint64

	// HandlersExecuted is the total number of handler invocations.
	HandlersExecuted uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// ActiveSubscriptions is the current number of live subscriptions
	// across all event types.
	ActiveSubscriptions int
}
