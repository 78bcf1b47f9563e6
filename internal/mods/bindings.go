package mods

import (
	"github.com/emeraldgrove/engine/internal/event"
	"github.com/emeraldgrove/engine/internal/event/events"
)

// Binding subscribes a payload-agnostic callback to one named event type.
// The callback receives the payload flattened to a string-keyed map, which
// the host converts to a Lua table. A true return requests cancellation;
// it is honored only for cancellable events and ignored otherwise.
type Binding func(b *event.Bus, prio event.Priority, fn func(map[string]any) bool) event.SubscriptionID

// DefaultBindings returns the event names scripts may subscribe to.
// Each entry is a little typed glue function; adding an event to the script
// surface means adding a line here, never touching the dispatch core.
func DefaultBindings() map[string]Binding {
	return map[string]Binding{
		"MapLoaded": func(b *event.Bus, prio event.Priority, fn func(map[string]any) bool) event.SubscriptionID {
			return event.Subscribe(b, func(ev events.MapLoaded) error {
				fn(map[string]any{"id": ev.ID})
				return nil
			}, event.WithPriority(prio))
		},
		"MapUnloaded": func(b *event.Bus, prio event.Priority, fn func(map[string]any) bool) event.SubscriptionID {
			return event.Subscribe(b, func(ev events.MapUnloaded) error {
				fn(map[string]any{"id": ev.ID})
				return nil
			}, event.WithPriority(prio))
		},
		"EntityMoved": func(b *event.Bus, prio event.Priority, fn func(map[string]any) bool) event.SubscriptionID {
			return event.Subscribe(b, func(ev events.EntityMoved) error {
				fn(map[string]any{"entity": ev.Entity, "x": ev.X, "y": ev.Y})
				return nil
			}, event.WithPriority(prio))
		},
		"MoveRequested": func(b *event.Bus, prio event.Priority, fn func(map[string]any) bool) event.SubscriptionID {
			return event.Subscribe(b, func(ev *events.MoveRequested) error {
				cancel := fn(map[string]any{
					"entity": ev.Entity,
					"from_x": ev.FromX, "from_y": ev.FromY,
					"to_x": ev.ToX, "to_y": ev.ToY,
				})
				if cancel {
					ev.Cancel()
				}
				return nil
			}, event.WithPriority(prio))
		},
		"ModLoaded": func(b *event.Bus, prio event.Priority, fn func(map[string]any) bool) event.SubscriptionID {
			return event.Subscribe(b, func(ev events.ModLoaded) error {
				fn(map[string]any{"name": ev.Name})
				return nil
			}, event.WithPriority(prio))
		},
	}
}
