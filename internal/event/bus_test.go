package event

import (
	"errors"
	"sync"
	"testing"
)

// ping is the plain test event.
type ping struct {
	n int
}

// validate is the cancellable test event.
type validate struct {
	CancelState
	n int
}

func TestNewBus(t *testing.T) {
	b := NewBus()
	if b == nil {
		t.Fatal("NewBus() returned nil")
	}
	if got := SubscriberCount[ping](b); got != 0 {
		t.Errorf("expected 0 subscribers, got %d", got)
	}
}

func TestBus_PublishPriorityOrder(t *testing.T) {
	b := NewBus()

	var order []string
	Subscribe(b, func(ping) error {
		order = append(order, "h2")
		return nil
	}, WithPriority(PriorityLow))
	h1 := Subscribe(b, func(ping) error {
		order = append(order, "h1")
		return nil
	}, WithPriority(PriorityHigh))

	Publish(b, ping{n: 1})

	if len(order) != 2 || order[0] != "h1" || order[1] != "h2" {
		t.Fatalf("expected [h1 h2], got %v", order)
	}

	b.Unsubscribe(h1)
	order = nil
	Publish(b, ping{n: 2})

	if len(order) != 1 || order[0] != "h2" {
		t.Fatalf("expected [h2], got %v", order)
	}
}

func TestBus_FIFOWithinPriority(t *testing.T) {
	b := NewBus()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		Subscribe(b, func(ping) error {
			order = append(order, i)
			return nil
		})
	}

	Publish(b, ping{})

	for i, got := range order {
		if got != i {
			t.Fatalf("expected FIFO order within a priority tier, got %v", order)
		}
	}
}

func TestBus_AllTiersDescending(t *testing.T) {
	b := NewBus()

	var order []Priority
	record := func(p Priority) {
		Subscribe(b, func(ping) error {
			order = append(order, p)
			return nil
		}, WithPriority(p))
	}
	// Subscribe in scrambled order.
	record(PriorityNormal)
	record(PriorityLowest)
	record(PriorityCritical)
	record(PriorityLow)
	record(PriorityHigh)

	Publish(b, ping{})

	want := []Priority{PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow, PriorityLowest}
	if len(order) != len(want) {
		t.Fatalf("expected %d invocations, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestBus_ExactlyOncePerPublish(t *testing.T) {
	b := NewBus()

	counts := make(map[string]int)
	Subscribe(b, func(ping) error {
		counts["a"]++
		return nil
	})
	idB := Subscribe(b, func(ping) error {
		counts["b"]++
		return nil
	})

	Publish(b, ping{})
	Publish(b, ping{})
	b.Unsubscribe(idB)
	Publish(b, ping{})

	if counts["a"] != 3 {
		t.Errorf("expected handler a invoked 3 times, got %d", counts["a"])
	}
	if counts["b"] != 2 {
		t.Errorf("expected handler b invoked 2 times, got %d", counts["b"])
	}
}

func TestBus_PublishNoSubscribers(t *testing.T) {
	b := NewBus()

	// Must not panic and must not count as published.
	Publish(b, ping{})

	if got := b.Stats().EventsPublished; got != 0 {
		t.Errorf("expected 0 events published, got %d", got)
	}
}

func TestBus_UnsubscribeIdempotent(t *testing.T) {
	b := NewBus()

	id := Subscribe(b, func(ping) error { return nil })
	b.Unsubscribe(id)
	b.Unsubscribe(id)                  // second time is a no-op
	b.Unsubscribe(SubscriptionID(999)) // never issued

	if got := SubscriberCount[ping](b); got != 0 {
		t.Errorf("expected 0 subscribers, got %d", got)
	}
}

func TestBus_NilHandler(t *testing.T) {
	b := NewBus()

	if id := Subscribe[ping](b, nil); id != 0 {
		t.Errorf("expected zero id for nil handler, got %d", id)
	}
	if got := SubscriberCount[ping](b); got != 0 {
		t.Errorf("expected 0 subscribers, got %d", got)
	}
}

func TestBus_ClearSubscriptions(t *testing.T) {
	b := NewBus()

	Subscribe(b, func(ping) error { return nil })
	Subscribe(b, func(ping) error { return nil })
	Subscribe(b, func(*validate) error { return nil })

	ClearSubscriptions[ping](b)

	if got := SubscriberCount[ping](b); got != 0 {
		t.Errorf("expected 0 ping subscribers after clear, got %d", got)
	}
	if got := SubscriberCount[*validate](b); got != 1 {
		t.Errorf("expected other event types untouched, got %d subscribers", got)
	}
	if got := b.Stats().ActiveSubscriptions; got != 1 {
		t.Errorf("expected 1 active subscription, got %d", got)
	}
}

func TestBus_HandlerErrorIsolated(t *testing.T) {
	var failures []error
	b := NewBus(WithFailureHandler(func(err error) {
		failures = append(failures, err)
	}))

	ran := false
	badID := Subscribe(b, func(ping) error {
		return errors.New("boom")
	}, WithPriority(PriorityHigh))
	Subscribe(b, func(ping) error {
		ran = true
		return nil
	}, WithPriority(PriorityLow))

	Publish(b, ping{})

	if !ran {
		t.Error("expected remaining handler to run after a failure")
	}
	if got := b.Stats().HandlerErrors; got != 1 {
		t.Errorf("expected 1 handler error, got %d", got)
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 reported failure, got %d", len(failures))
	}
	var herr *HandlerError
	if !errors.As(failures[0], &herr) {
		t.Fatalf("expected *HandlerError, got %T", failures[0])
	}
	if herr.SubscriptionID != badID {
		t.Errorf("expected subscription %d in failure, got %d", badID, herr.SubscriptionID)
	}
}

func TestBus_HandlerPanicIsolated(t *testing.T) {
	b := NewBus(WithFailureHandler(func(err error) {
		if !errors.Is(err, ErrHandlerPanic) {
			t.Errorf("expected ErrHandlerPanic match, got %v", err)
		}
	}))

	ran := false
	Subscribe(b, func(ping) error {
		panic("handler exploded")
	}, WithPriority(PriorityCritical))
	Subscribe(b, func(ping) error {
		ran = true
		return nil
	}, WithPriority(PriorityLowest))

	Publish(b, ping{})

	if !ran {
		t.Error("expected remaining handler to run after a panic")
	}
	if got := b.Stats().HandlerPanics; got != 1 {
		t.Errorf("expected 1 handler panic, got %d", got)
	}
}

func TestBus_FailureHandlerPanicSwallowed(t *testing.T) {
	b := NewBus(WithFailureHandler(func(error) {
		panic("diagnostics exploded")
	}))

	Subscribe(b, func(ping) error { return errors.New("boom") })

	// Must not panic through to the publisher.
	Publish(b, ping{})
}

func TestBus_CancellableStopsDispatch(t *testing.T) {
	b := NewBus()

	h2Ran := false
	Subscribe(b, func(ev *validate) error {
		ev.Cancel()
		return nil
	}, WithPriority(PriorityHigh))
	Subscribe(b, func(ev *validate) error {
		h2Ran = true
		return nil
	}, WithPriority(PriorityLow))

	if PublishCancellable(b, &validate{n: 1}) {
		t.Error("expected cancelled result")
	}
	if h2Ran {
		t.Error("expected lower-priority handler to be skipped after cancellation")
	}
	if got := b.Stats().EventsCancelled; got != 1 {
		t.Errorf("expected 1 cancelled event, got %d", got)
	}
}

func TestBus_CancellableCompletes(t *testing.T) {
	b := NewBus()

	calls := 0
	Subscribe(b, func(*validate) error {
		calls++
		return nil
	}, WithPriority(PriorityHigh))
	Subscribe(b, func(*validate) error {
		calls++
		return nil
	}, WithPriority(PriorityLow))

	if !PublishCancellable(b, &validate{}) {
		t.Error("expected not-cancelled result")
	}
	if calls != 2 {
		t.Errorf("expected 2 handler calls, got %d", calls)
	}
}

func TestBus_CancellableNoSubscribers(t *testing.T) {
	b := NewBus()

	if !PublishCancellable(b, &validate{}) {
		t.Error("expected not-cancelled result with no subscribers")
	}
}

func TestBus_ReentrantPublish(t *testing.T) {
	b := NewBus()

	var order []string
	Subscribe(b, func(ev ping) error {
		order = append(order, "outer")
		if ev.n == 0 {
			Publish(b, ping{n: 1}) // nested publish of the same type
		}
		return nil
	}, WithPriority(PriorityHigh))
	Subscribe(b, func(ev ping) error {
		if ev.n == 0 {
			order = append(order, "low")
		}
		return nil
	}, WithPriority(PriorityLow))

	Publish(b, ping{n: 0})

	// Nested dispatch completes inside the outer high handler, then the
	// outer traversal resumes with the low handler.
	want := []string{"outer", "outer", "low"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestBus_SubscribeDuringDispatchDeferred(t *testing.T) {
	b := NewBus()

	lateCalls := 0
	Subscribe(b, func(ping) error {
		Subscribe(b, func(ping) error {
			lateCalls++
			return nil
		})
		return nil
	})

	Publish(b, ping{})
	if lateCalls != 0 {
		t.Fatalf("expected mid-dispatch subscription to wait for the next publish, got %d calls", lateCalls)
	}

	Publish(b, ping{})
	if lateCalls != 1 {
		t.Fatalf("expected late handler to run on the next publish, got %d calls", lateCalls)
	}
}

func TestBus_UnsubscribeDuringDispatchDeferred(t *testing.T) {
	b := NewBus()

	var lateID SubscriptionID
	lateCalls := 0
	Subscribe(b, func(ping) error {
		b.Unsubscribe(lateID)
		return nil
	}, WithPriority(PriorityHigh))
	lateID = Subscribe(b, func(ping) error {
		lateCalls++
		return nil
	}, WithPriority(PriorityLow))

	// The traversal snapshot predates the removal, so the handler still
	// sees this publish; it is gone for the next one.
	Publish(b, ping{})
	if lateCalls != 1 {
		t.Fatalf("expected snapshot to keep the handler for the in-flight publish, got %d calls", lateCalls)
	}

	Publish(b, ping{})
	if lateCalls != 1 {
		t.Fatalf("expected handler removed for subsequent publishes, got %d calls", lateCalls)
	}
}

func TestBus_ConcurrentMutationAndPublish(t *testing.T) {
	b := NewBus()

	stop := make(chan struct{})
	publisherDone := make(chan struct{})

	// Publisher loop, standing in for the game loop thread.
	go func() {
		defer close(publisherDone)
		for {
			select {
			case <-stop:
				return
			default:
				Publish(b, ping{})
			}
		}
	}()

	// Subscription churn from other goroutines, like a mod loader.
	var churn sync.WaitGroup
	for g := 0; g < 4; g++ {
		churn.Add(1)
		go func() {
			defer churn.Done()
			for i := 0; i < 500; i++ {
				id := Subscribe(b, func(ping) error { return nil })
				b.Unsubscribe(id)
			}
		}()
	}

	churn.Wait()
	close(stop)
	<-publisherDone

	if got := SubscriberCount[ping](b); got != 0 {
		t.Errorf("expected all churned subscriptions removed, got %d", got)
	}
}

func TestBus_Stats(t *testing.T) {
	b := NewBus()

	Subscribe(b, func(ping) error { return nil })
	Subscribe(b, func(ping) error { return nil })

	Publish(b, ping{})
	Publish(b, ping{})

	stats := b.Stats()
	if stats.EventsPublished != 2 {
		t.Errorf("expected 2 events published, got %d", stats.EventsPublished)
	}
	if stats.HandlersExecuted != 4 {
		t.Errorf("expected 4 handlers executed, got %d", stats.HandlersExecuted)
	}
	if stats.ActiveSubscriptions != 2 {
		t.Errorf("expected 2 active subscriptions, got %d", stats.ActiveSubscriptions)
	}
}
