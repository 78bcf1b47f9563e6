package event

import (
	"testing"

	"github.com/emeraldgrove/engine/internal/legacy"
)

// mapLoaded is the typed side of the bridge test mapping.
type mapLoaded struct {
	ID int
}

func mapToLegacy(ev mapLoaded) (legacy.Event, bool) {
	return legacy.MapLoadedEvent{MapID: ev.ID}, true
}

func mapFromLegacy(lev legacy.Event) (mapLoaded, bool) {
	ml, ok := lev.(legacy.MapLoadedEvent)
	if !ok {
		return mapLoaded{}, false
	}
	return mapLoaded{ID: ml.MapID}, true
}

func TestForwardToLegacy(t *testing.T) {
	bus := NewBus()
	lb := legacy.NewBus()
	adapter := NewLegacyAdapter(bus, lb)
	defer adapter.Close()

	ForwardToLegacy(adapter, mapToLegacy)

	var got []legacy.Event
	lb.RegisterHandler(legacy.NameMapLoaded, legacy.HandlerFunc(func(ev legacy.Event) {
		got = append(got, ev)
	}))

	Publish(bus, mapLoaded{ID: 7})

	if len(got) != 1 {
		t.Fatalf("expected exactly 1 legacy delivery, got %d", len(got))
	}
	ml, ok := got[0].(legacy.MapLoadedEvent)
	if !ok {
		t.Fatalf("expected MapLoadedEvent, got %T", got[0])
	}
	if ml.MapID != 7 {
		t.Errorf("expected map id 7, got %d", ml.MapID)
	}
}

func TestForwardToECS(t *testing.T) {
	bus := NewBus()
	lb := legacy.NewBus()
	adapter := NewLegacyAdapter(bus, lb)
	defer adapter.Close()

	ForwardToECS(adapter, legacy.NameMapLoaded, mapFromLegacy)

	var got []mapLoaded
	Subscribe(bus, func(ev mapLoaded) error {
		got = append(got, ev)
		return nil
	})

	lb.Publish(legacy.MapLoadedEvent{MapID: 3})

	if len(got) != 1 {
		t.Fatalf("expected exactly 1 typed delivery, got %d", len(got))
	}
	if got[0].ID != 3 {
		t.Errorf("expected map id 3, got %d", got[0].ID)
	}
}

func TestBidirectionalForward_NoLoop(t *testing.T) {
	bus := NewBus()
	lb := legacy.NewBus()
	adapter := NewLegacyAdapter(bus, lb)
	defer adapter.Close()

	BidirectionalForward(adapter, legacy.NameMapLoaded, mapToLegacy, mapFromLegacy)

	ecsSeen := 0
	legacySeen := 0
	Subscribe(bus, func(mapLoaded) error {
		ecsSeen++
		return nil
	})
	lb.RegisterHandler(legacy.NameMapLoaded, legacy.HandlerFunc(func(legacy.Event) {
		legacySeen++
	}))

	// Typed-side publish: one delivery per side, no bounce.
	Publish(bus, mapLoaded{ID: 7})
	if ecsSeen != 1 || legacySeen != 1 {
		t.Fatalf("expected 1 delivery per side, got ecs=%d legacy=%d", ecsSeen, legacySeen)
	}

	// Legacy-side publish: same guarantee in the other direction.
	ecsSeen, legacySeen = 0, 0
	lb.Publish(legacy.MapLoadedEvent{MapID: 9})
	if ecsSeen != 1 || legacySeen != 1 {
		t.Fatalf("expected 1 delivery per side, got ecs=%d legacy=%d", ecsSeen, legacySeen)
	}
}

func TestBidirectionalForward_RoundTripStructure(t *testing.T) {
	bus := NewBus()
	lb := legacy.NewBus()
	adapter := NewLegacyAdapter(bus, lb)
	defer adapter.Close()

	BidirectionalForward(adapter, legacy.NameMapLoaded, mapToLegacy, mapFromLegacy)

	var legacyGot []legacy.MapLoadedEvent
	lb.RegisterHandler(legacy.NameMapLoaded, legacy.HandlerFunc(func(ev legacy.Event) {
		legacyGot = append(legacyGot, ev.(legacy.MapLoadedEvent))
	}))

	original := mapLoaded{ID: 42}
	Publish(bus, original)

	if len(legacyGot) != 1 {
		t.Fatalf("expected 1 legacy delivery, got %d", len(legacyGot))
	}
	back, ok := mapFromLegacy(legacyGot[0])
	if !ok {
		t.Fatal("expected reverse conversion to succeed")
	}
	if back != original {
		t.Errorf("expected structural round trip, got %+v", back)
	}
}

func TestAdapter_ConversionMiss(t *testing.T) {
	bus := NewBus()
	lb := legacy.NewBus()
	adapter := NewLegacyAdapter(bus, lb)
	defer adapter.Close()

	// Partial mapping: nothing on the legacy side for this event.
	ForwardToLegacy(adapter, func(mapLoaded) (legacy.Event, bool) {
		return nil, false
	})

	legacySeen := 0
	lb.RegisterHandler(legacy.NameMapLoaded, legacy.HandlerFunc(func(legacy.Event) {
		legacySeen++
	}))

	Publish(bus, mapLoaded{ID: 1})

	if legacySeen != 0 {
		t.Errorf("expected declined conversion to drop the event, got %d deliveries", legacySeen)
	}
	// A miss is not a failure.
	if got := bus.Stats().HandlerErrors; got != 0 {
		t.Errorf("expected 0 handler errors, got %d", got)
	}
}

func TestAdapter_Close(t *testing.T) {
	bus := NewBus()
	lb := legacy.NewBus()
	adapter := NewLegacyAdapter(bus, lb)

	BidirectionalForward(adapter, legacy.NameMapLoaded, mapToLegacy, mapFromLegacy)

	adapter.Close()
	adapter.Close() // idempotent

	legacySeen := 0
	lb.RegisterHandler(legacy.NameMapLoaded, legacy.HandlerFunc(func(legacy.Event) {
		legacySeen++
	}))
	Publish(bus, mapLoaded{ID: 1})

	if legacySeen != 0 {
		t.Errorf("expected no forwarding after Close, got %d deliveries", legacySeen)
	}
	if got := SubscriberCount[mapLoaded](bus); got != 0 {
		t.Errorf("expected adapter subscriptions removed, got %d", got)
	}
}

func TestAdapter_ID(t *testing.T) {
	bus := NewBus()
	lb := legacy.NewBus()

	a1 := NewLegacyAdapter(bus, lb)
	a2 := NewLegacyAdapter(bus, lb)
	defer a1.Close()
	defer a2.Close()

	if a1.ID() == "" || a1.ID() == a2.ID() {
		t.Errorf("expected distinct non-empty adapter ids, got %q and %q", a1.ID(), a2.ID())
	}
}
