// Package event provides the engine's in-process event dispatch core.
//
// The bus is the seam between game subsystems - movement, map streaming,
// scripting/mods, UI - letting them publish and observe typed events
// without direct dependencies on one another.
//
// # Architecture
//
//	                ┌────────────────────────────────────────┐
//	                │                 Bus                     │
//	                │  - per-type handler registry            │
//	                │  - sorted dispatch cache (lazy rebuild) │
//	                │  - synchronous prioritized dispatch     │
//	                └────────────────────────────────────────┘
//	                                  │
//	        ┌─────────────────────────┼─────────────────────────┐
//	        ▼                         ▼                         ▼
//	┌───────────────┐       ┌─────────────────┐       ┌─────────────────┐
//	│   Registry    │       │   Cancellable   │       │  LegacyAdapter  │
//	│ - partitions  │       │ - pre/post      │       │ - bidirectional │
//	│   by payload  │       │   protocol      │       │   forwarding    │
//	│   type        │       │ - early exit    │       │ - origin tags   │
//	└───────────────┘       └─────────────────┘       └─────────────────┘
//
// # Subscriptions
//
// Any plain value type can be an event; the payload type is the
// subscription key:
//
//	id := event.Subscribe(bus, func(ev events.MapLoaded) error {
//	    stream.Prefetch(ev.ID)
//	    return nil
//	}, event.WithPriority(event.PriorityHigh))
//	defer bus.Unsubscribe(id)
//
//	event.Publish(bus, events.MapLoaded{ID: 7})
//
// Handlers run synchronously on the publishing goroutine, highest priority
// first; handlers sharing a priority run in subscription order. Priority
// orders handlers, it never excludes them.
//
// # Cancellable events
//
// Payloads embedding CancelState (published by pointer) take part in the
// two-phase pre/post protocol:
//
//	req := &events.MoveRequested{Entity: id, ToX: x, ToY: y}
//	if event.PublishCancellable(bus, req) {
//	    commitMove(id, x, y)
//	    event.Publish(bus, events.EntityMoved{Entity: id, X: x, Y: y})
//	}
//
// Dispatch stops at the first handler that cancels. Publishing the post
// notification only on a true result is the producer's obligation.
//
// # Failure isolation
//
// A handler that returns an error or panics is logged with the event type
// and subscription id, and dispatch continues with the remaining handlers.
// One misbehaving consumer never hides an event from its peers, and
// nothing a handler does can crash the game loop.
//
// # Legacy interop
//
// LegacyAdapter forwards events to and from the old name-keyed bus in
// internal/legacy, tagging each forwarded event with its origin so a
// bidirectional mapping cannot loop.
package event
