package events

import "github.com/emeraldgrove/engine/internal/event"

// MapLoaded announces that the map streamer finished loading a map.
type MapLoaded struct {
	event.Meta

	ID int
}

// MapUnloaded announces that a map was evicted from the streamer.
type MapUnloaded struct {
	event.Meta

	ID int
}
