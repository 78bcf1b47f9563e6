package event

import (
	"reflect"
	"sort"
	"sync"
)

// record is a single subscription owned by the registry. Callers hold only
// the SubscriptionID as a capability to unsubscribe.
type record struct {
	id       SubscriptionID
	priority Priority
	typ      reflect.Type

	// invoke is the type-erased handler. The concrete payload type is
	// captured in a closure at Subscribe time, so dispatch never reflects.
	invoke func(ev any) error

	// suppressed, when non-nil, is an origin tag whose publishes this
	// record never sees. Used by the legacy adapter to break forwarding
	// loops; the tag travels alongside the payload, never inside it.
	suppressed any
}

// partition holds the subscriptions for one event type plus a lazily
// rebuilt sorted view of them.
type partition struct {
	mu sync.Mutex

	// recs is the live subscription set in registration order.
	recs []*record

	// sorted is the dispatch snapshot: priority descending, registration
	// order ascending within a tier. nil means stale. Once published it is
	// immutable; mutation replaces it with nil rather than editing it, so
	// in-flight traversals are never corrupted.
	sorted []*record
}

// add appends a record and invalidates the sorted view.
func (p *partition) add(r *record) {
	p.mu.Lock()
	p.recs = append(p.recs, r)
	p.sorted = nil
	p.mu.Unlock()
}

// remove deletes the record with the given id if present.
// Reports whether a record was removed.
func (p *partition) remove(id SubscriptionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, r := range p.recs {
		if r.id == id {
			p.recs = append(p.recs[:i], p.recs[i+1:]...)
			p.sorted = nil
			return true
		}
	}
	return false
}

// clear removes every record and returns the ids that were live.
func (p *partition) clear() []SubscriptionID {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.recs) == 0 {
		return nil
	}
	ids := make([]SubscriptionID, len(p.recs))
	for i, r := range p.recs {
		ids[i] = r.id
	}
	p.recs = nil
	p.sorted = nil
	return ids
}

// count returns the number of live subscriptions.
func (p *partition) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.recs)
}

// snapshot returns the sorted dispatch view, rebuilding it if a mutation
// invalidated it. The staleness check happens under the partition lock, so
// two publishers racing on a stale view converge on a single rebuild.
// The returned slice must not be modified.
func (p *partition) snapshot() []*record {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sorted == nil && len(p.recs) > 0 {
		s := make([]*record, len(p.recs))
		copy(s, p.recs)
		// IDs are issued monotonically, so ascending id equals FIFO
		// registration order within a priority tier.
		sort.SliceStable(s, func(i, j int) bool {
			if s[i].priority != s[j].priority {
				return s[i].priority > s[j].priority
			}
			return s[i].id < s[j].id
		})
		p.sorted = s
	}
	return p.sorted
}
