package legacy

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is the contract every legacy event implements.
type Event interface {
	// EventName returns the name handlers register against.
	EventName() string
}

// Handler processes a legacy event.
type Handler interface {
	Handle(Event)
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(Event)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ev Event) {
	f(ev)
}

// OriginAware is an optional extension a Handler may implement to receive
// the origin tag carried alongside a published event. The bridge adapter
// uses it to recognize, and skip, events it forwarded itself.
type OriginAware interface {
	HandleFrom(origin any, ev Event)
}

// Base carries the bookkeeping fields legacy events embed.
type Base struct {
	ID   string
	Time time.Time
}

// NewBase stamps a fresh event id and timestamp.
func NewBase() Base {
	return Base{ID: uuid.NewString(), Time: time.Now()}
}

// registration pairs a handler with the id used to unregister it.
type registration struct {
	id int
	h  Handler
}

// Bus is the legacy name-keyed event bus. Handlers for a name run in
// registration order; there is no priority tiering and no failure
// isolation, which is part of why the typed bus replaced it.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]registration
	nextID   int
}

// NewBus creates an empty legacy bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]registration),
	}
}

// RegisterHandler registers a handler for the named event and returns an id
// for UnregisterHandler.
func (b *Bus) RegisterHandler(name string, h Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[name] = append(b.handlers[name], registration{id: b.nextID, h: h})
	return b.nextID
}

// UnregisterHandler removes a handler by id. Unknown ids are a no-op.
func (b *Bus) UnregisterHandler(name string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[name]
	for i, r := range regs {
		if r.id == id {
			b.handlers[name] = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	if len(b.handlers[name]) == 0 {
		delete(b.handlers, name)
	}
}

// HandlerCount returns the number of handlers registered for the name.
func (b *Bus) HandlerCount(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

// Publish delivers ev to every handler registered for its name.
func (b *Bus) Publish(ev Event) {
	b.PublishFrom(nil, ev)
}

// PublishFrom delivers ev with an origin tag alongside it. Handlers that
// implement OriginAware receive the tag; plain handlers do not see it.
func (b *Bus) PublishFrom(origin any, ev Event) {
	b.mu.RLock()
	regs := b.handlers[ev.EventName()]
	snapshot := make([]registration, len(regs))
	copy(snapshot, regs)
	b.mu.RUnlock()

	for _, r := range snapshot {
		if oa, ok := r.h.(OriginAware); ok {
			oa.HandleFrom(origin, ev)
			continue
		}
		r.h.Handle(ev)
	}
}
