package event

import (
	"reflect"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Bus is the in-process event dispatch engine. Subscriptions are keyed by
// payload type; dispatch is synchronous on the publisher's goroutine, in
// subscriber priority order, with handler failures isolated.
//
// A Bus is safe for concurrent use: subscribe and unsubscribe may run from
// any goroutine while publishes run on the game loop.
type Bus struct {
	mu    sync.Mutex
	parts map[reflect.Type]*partition
	byID  map[SubscriptionID]*record

	nextID    atomic.Uint64
	logger    *zap.Logger
	onFailure func(error)

	// Counters
	eventsPublished  atomic.Uint64
	eventsCancelled  atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	handlerPanics    atomic.Uint64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report handler failures.
// The default discards everything.
func WithLogger(logger *zap.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithFailureHandler registers a callback invoked with a *HandlerError or
// *PanicError whenever a handler fails. It runs synchronously on the
// publishing goroutine; keep it cheap.
func WithFailureHandler(fn func(error)) BusOption {
	return func(b *Bus) {
		b.onFailure = fn
	}
}

// NewBus creates an empty event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		parts:  make(map[reflect.Type]*partition),
		byID:   make(map[SubscriptionID]*record),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for events of type T at the given priority
// (PriorityNormal by default). It never rejects a registration; there is no
// capacity limit. The returned id is the caller's only capability to
// unsubscribe later. A nil handler returns the zero id and registers
// nothing.
func Subscribe[T any](b *Bus, fn Handler[T], opts ...SubscribeOption) SubscriptionID {
	if fn == nil {
		return 0
	}
	invoke := func(ev any) error {
		return fn(ev.(T))
	}
	return b.subscribe(reflect.TypeOf((*T)(nil)).Elem(), invoke, newSubscribeConfig(opts))
}

// Publish delivers ev to every live handler subscribed for type T, highest
// priority first, FIFO among equals. A handler error or panic is logged and
// does not stop delivery to the remaining handlers. Publish returns once
// all handlers have run.
func Publish[T any](b *Bus, ev T) {
	b.dispatch(reflect.TypeOf((*T)(nil)).Elem(), ev, nil, nil)
}

// PublishCancellable delivers ev like Publish, but stops at the first
// handler that marks the event cancelled. It reports true when the event
// survived every handler (proceed), false when it was cancelled.
//
// Producers pairing a cancellable pre-event with a post notification must
// only publish the post event on a true result; the bus does not enforce
// the pairing.
func PublishCancellable[T Cancellable](b *Bus, ev T) bool {
	return b.dispatch(reflect.TypeOf((*T)(nil)).Elem(), ev, ev, nil)
}

// Unsubscribe removes the subscription with the given id. Unknown or
// already-removed ids are a no-op, so teardown paths may call it
// unconditionally.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	rec, ok := b.byID[id]
	if ok {
		delete(b.byID, id)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	if p := b.partition(rec.typ, false); p != nil {
		p.remove(id)
	}
}

// SubscriberCount returns the number of live subscriptions for type T.
func SubscriberCount[T any](b *Bus) int {
	p := b.partition(reflect.TypeOf((*T)(nil)).Elem(), false)
	if p == nil {
		return 0
	}
	return p.count()
}

// ClearSubscriptions removes every subscription for type T, leaving other
// event types untouched. Used when tearing down a whole consumer, such as
// a mod unloading.
func ClearSubscriptions[T any](b *Bus) {
	b.clearType(reflect.TypeOf((*T)(nil)).Elem())
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	active := len(b.byID)
	b.mu.Unlock()

	return Stats{
		EventsPublished:     b.eventsPublished.Load(),
		EventsCancelled:     b.eventsCancelled.Load(),
		HandlersExecuted:    b.handlersExecuted.Load(),
		HandlerErrors:       b.handlerErrors.Load(),
		HandlerPanics:       b.handlerPanics.Load(),
		ActiveSubscriptions: active,
	}
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	priority Priority
}

func newSubscribeConfig(opts []SubscribeOption) subscribeConfig {
	cfg := subscribeConfig{priority: PriorityNormal}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithPriority sets the subscription priority.
func WithPriority(p Priority) SubscribeOption {
	return func(c *subscribeConfig) {
		c.priority = p
	}
}

// subscribe registers a type-erased handler. The adapter uses it directly
// to attach an origin suppression tag.
func (b *Bus) subscribe(t reflect.Type, invoke func(any) error, cfg subscribeConfig) SubscriptionID {
	return b.subscribeRecord(&record{
		priority: cfg.priority,
		typ:      t,
		invoke:   invoke,
	})
}

func (b *Bus) subscribeRecord(rec *record) SubscriptionID {
	rec.id = SubscriptionID(b.nextID.Add(1))

	b.mu.Lock()
	b.byID[rec.id] = rec
	b.mu.Unlock()

	b.partition(rec.typ, true).add(rec)
	return rec.id
}

// partition returns the partition for t, creating it when create is set.
func (b *Bus) partition(t reflect.Type, create bool) *partition {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.parts[t]
	if !ok && create {
		p = &partition{}
		b.parts[t] = p
	}
	return p
}

func (b *Bus) clearType(t reflect.Type) {
	p := b.partition(t, false)
	if p == nil {
		return
	}
	ids := p.clear()
	if len(ids) == 0 {
		return
	}

	b.mu.Lock()
	for _, id := range ids {
		delete(b.byID, id)
	}
	b.mu.Unlock()
}
