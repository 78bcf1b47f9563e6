package events

import "github.com/emeraldgrove/engine/internal/event"

// MoveRequested is the cancellable pre-event published before an entity
// move is committed. Any handler may cancel it to veto the move (collision,
// scripted block, encounter trigger).
type MoveRequested struct {
	event.CancelState
	event.Meta

	Entity       uint64
	FromX, FromY int
	ToX, ToY     int
}

// EntityMoved is the post notification published after a move committed.
// It is never published for a cancelled request.
type EntityMoved struct {
	event.Meta

	Entity uint64
	X, Y   int
}

// RequestMove runs the two-phase move protocol: publish the cancellable
// pre-event, and only when no handler vetoed it, publish the EntityMoved
// notification. Reports whether the move went through.
//
// Producers driving moves by hand must follow the same convention; the bus
// does not enforce it.
func RequestMove(b *event.Bus, entity uint64, fromX, fromY, toX, toY int) bool {
	req := &MoveRequested{
		Meta:   event.NewMeta(event.PriorityCritical),
		Entity: entity,
		FromX:  fromX,
		FromY:  fromY,
		ToX:    toX,
		ToY:    toY,
	}
	if !event.PublishCancellable(b, req) {
		return false
	}

	event.Publish(b, EntityMoved{
		Meta:   event.NewMeta(event.PriorityCritical),
		Entity: entity,
		X:      toX,
		Y:      toY,
	})
	return true
}
