package legacy

// Event names used by pre-migration consumers.
const (
	NameMapLoaded   = "MapLoaded"
	NameMapUnloaded = "MapUnloaded"
	NameEntityMoved = "EntityMoved"
)

// MapLoadedEvent announces that a map finished loading.
type MapLoadedEvent struct {
	Base
	MapID int
}

// EventName implements the Event interface.
func (MapLoadedEvent) EventName() string { return NameMapLoaded }

// MapUnloadedEvent announces that a map was evicted.
type MapUnloadedEvent struct {
	Base
	MapID int
}

// EventName implements the Event interface.
func (MapUnloadedEvent) EventName() string { return NameMapUnloaded }

// EntityMovedEvent announces a committed entity move.
type EntityMovedEvent struct {
	Base
	Entity uint64
	X, Y   int
}

// EventName implements the Event interface.
func (EntityMovedEvent) EventName() string { return NameEntityMoved }
