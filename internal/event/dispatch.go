package event

import (
	"reflect"
	"runtime/debug"

	"go.uber.org/zap"
)

// dispatch walks the sorted dispatch snapshot for t, invoking each handler
// with ev. canc is the event's cancellable capability, or nil for plain
// publishes. origin tags forwarded events so adapter subscriptions can
// refuse their own republishes.
//
// The snapshot is immutable, so handlers are free to subscribe,
// unsubscribe, or publish (including recursively for the same type) without
// corrupting the traversal; registry changes made mid-dispatch take effect
// on the next snapshot rebuild, not this one.
//
// Reports false only when a cancellable event was cancelled.
func (b *Bus) dispatch(t reflect.Type, ev any, canc Cancellable, origin any) bool {
	p := b.partition(t, false)
	if p == nil {
		return true
	}
	snap := p.snapshot()
	if len(snap) == 0 {
		return true
	}

	b.eventsPublished.Add(1)

	for _, rec := range snap {
		if rec.suppressed != nil && rec.suppressed == origin {
			continue
		}

		b.safeInvoke(rec, ev)

		if canc != nil && canc.IsCancelled() {
			b.eventsCancelled.Add(1)
			return false
		}
	}
	return true
}

// safeInvoke runs one handler, isolating error returns and panics so a
// misbehaving consumer never prevents its peers from observing the event.
func (b *Bus) safeInvoke(rec *record, ev any) {
	b.handlersExecuted.Add(1)

	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			perr := &PanicError{
				SubscriptionID: rec.id,
				EventType:      rec.typ.String(),
				Value:          r,
				Stack:          debug.Stack(),
			}
			b.logger.Error("event handler panicked",
				zap.String("event_type", perr.EventType),
				zap.Uint64("subscription_id", uint64(rec.id)),
				zap.String("priority", rec.priority.String()),
				zap.Any("panic", r),
				zap.ByteString("stack", perr.Stack),
			)
			b.reportFailure(perr)
		}
	}()

	if err := rec.invoke(ev); err != nil {
		b.handlerErrors.Add(1)
		herr := &HandlerError{
			SubscriptionID: rec.id,
			EventType:      rec.typ.String(),
			Err:            err,
		}
		b.logger.Error("event handler failed",
			zap.String("event_type", herr.EventType),
			zap.Uint64("subscription_id", uint64(rec.id)),
			zap.String("priority", rec.priority.String()),
			zap.Error(err),
		)
		b.reportFailure(herr)
	}
}

// reportFailure invokes the configured failure handler. The handler runs on
// the publisher's goroutine; its own panics are swallowed so diagnostics
// can never take down dispatch.
func (b *Bus) reportFailure(err error) {
	if b.onFailure == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	b.onFailure(err)
}
