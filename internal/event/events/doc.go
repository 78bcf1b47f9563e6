// Package events defines the typed payloads published on the engine bus.
//
// Payloads are plain values with no identity; most embed event.Meta for
// publisher-side bookkeeping. Cancellable pre-events embed
// event.CancelState and are published by pointer.
package events
