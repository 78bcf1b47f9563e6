package events

import "github.com/emeraldgrove/engine/internal/event"

// ModLoaded announces that a mod script finished loading.
type ModLoaded struct {
	event.Meta

	Name string
}

// ModUnloaded announces that a mod script was unloaded and its
// subscriptions removed.
type ModUnloaded struct {
	event.Meta

	Name string
}
