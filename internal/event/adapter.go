package event

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emeraldgrove/engine/internal/legacy"
)

// LegacyAdapter forwards events between the typed bus and the legacy
// name-keyed bus so consumers can migrate one at a time.
//
// Loop breaking: the adapter instance itself is the origin tag. Every event
// it republishes carries the adapter as origin on the target bus, and every
// subscription the adapter owns refuses events whose origin is the adapter.
// A bidirectional mapping therefore delivers a published event exactly once
// on each side.
type LegacyAdapter struct {
	bus    *Bus
	legacy *legacy.Bus
	id     string
	logger *zap.Logger

	mu         sync.Mutex
	busSubs    []SubscriptionID
	legacyRegs []legacyRegistration
	closed     atomic.Bool
}

type legacyRegistration struct {
	name string
	id   int
}

// AdapterOption configures a LegacyAdapter.
type AdapterOption func(*LegacyAdapter)

// WithAdapterLogger sets the logger for conversion diagnostics.
func WithAdapterLogger(logger *zap.Logger) AdapterOption {
	return func(a *LegacyAdapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewLegacyAdapter creates an adapter between the two buses. Mappings are
// added with ForwardToLegacy, ForwardToECS, and BidirectionalForward.
func NewLegacyAdapter(bus *Bus, lb *legacy.Bus, opts ...AdapterOption) *LegacyAdapter {
	a := &LegacyAdapter{
		bus:    bus,
		legacy: lb,
		id:     uuid.NewString(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the adapter's instance id, used in diagnostics.
func (a *LegacyAdapter) ID() string {
	return a.id
}

// ForwardToLegacy republishes typed events of type T on the legacy bus.
// convert may report ok=false for events with no legacy equivalent; those
// are dropped without error, which is expected during a partial migration.
func ForwardToLegacy[T any](a *LegacyAdapter, convert func(T) (legacy.Event, bool)) {
	rec := &record{
		priority:   PriorityNormal,
		typ:        reflect.TypeOf((*T)(nil)).Elem(),
		suppressed: a,
		invoke: func(ev any) error {
			if a.closed.Load() {
				return nil
			}
			lev, ok := convert(ev.(T))
			if !ok {
				return nil // no mapping
			}
			a.legacy.PublishFrom(a, lev)
			return nil
		},
	}
	id := a.bus.subscribeRecord(rec)

	a.mu.Lock()
	a.busSubs = append(a.busSubs, id)
	a.mu.Unlock()

	a.logger.Debug("legacy forwarding enabled",
		zap.String("adapter_id", a.id),
		zap.String("event_type", rec.typ.String()),
	)
}

// ForwardToECS republishes legacy events with the given name as typed
// events of type T. convert may report ok=false to drop an event that has
// no typed equivalent.
func ForwardToECS[T any](a *LegacyAdapter, name string, convert func(legacy.Event) (T, bool)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	regID := a.legacy.RegisterHandler(name, &legacyForwarder{
		adapter: a,
		forward: func(lev legacy.Event) {
			ev, ok := convert(lev)
			if !ok {
				return // no mapping
			}
			a.bus.dispatch(t, ev, nil, a)
		},
	})

	a.mu.Lock()
	a.legacyRegs = append(a.legacyRegs, legacyRegistration{name: name, id: regID})
	a.mu.Unlock()

	a.logger.Debug("ecs forwarding enabled",
		zap.String("adapter_id", a.id),
		zap.String("legacy_event", name),
		zap.String("event_type", t.String()),
	)
}

// BidirectionalForward composes ForwardToLegacy and ForwardToECS for one
// event pair. The shared origin tag prevents the forwarded copy from
// bouncing back through the reverse mapping.
func BidirectionalForward[T any](a *LegacyAdapter, name string, toLegacy func(T) (legacy.Event, bool), fromLegacy func(legacy.Event) (T, bool)) {
	ForwardToLegacy(a, toLegacy)
	ForwardToECS(a, name, fromLegacy)
}

// Close tears down every forwarding subscription on both buses.
// Safe to call more than once.
func (a *LegacyAdapter) Close() {
	if a.closed.Swap(true) {
		return
	}

	a.mu.Lock()
	busSubs := a.busSubs
	legacyRegs := a.legacyRegs
	a.busSubs = nil
	a.legacyRegs = nil
	a.mu.Unlock()

	for _, id := range busSubs {
		a.bus.Unsubscribe(id)
	}
	for _, reg := range legacyRegs {
		a.legacy.UnregisterHandler(reg.name, reg.id)
	}
}

// legacyForwarder is the adapter's handler on the legacy side. It inspects
// the origin tag so the adapter's own republishes are not forwarded again.
type legacyForwarder struct {
	adapter *LegacyAdapter
	forward func(legacy.Event)
}

// Handle implements legacy.Handler for buses that publish without origins.
func (f *legacyForwarder) Handle(ev legacy.Event) {
	f.HandleFrom(nil, ev)
}

// HandleFrom implements legacy.OriginAware.
func (f *legacyForwarder) HandleFrom(origin any, ev legacy.Event) {
	if origin == f.adapter || f.adapter.closed.Load() {
		return
	}
	f.forward(ev)
}
