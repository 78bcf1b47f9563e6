// Package legacy holds the first-generation event system: a name-keyed bus
// of handler objects, predating the typed bus in internal/event.
//
// New code should subscribe to the typed bus. This package exists so
// consumers that have not migrated keep working; event.LegacyAdapter
// forwards events between the two systems during the transition.
package legacy
