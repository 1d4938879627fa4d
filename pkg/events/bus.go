package events

import (
	"context"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/google/uuid"
)

// Handler receives a fully-formed Event.
type Handler func(Event)

// Predicate filters events for a predicate-based subscription.
type Predicate func(Event) bool

// Handle identifies a subscription for Unsubscribe.
type Handle uuid.UUID

type subscription struct {
	handle     Handle
	kind       Kind
	hasKind    bool
	predicate  Predicate
	handler    Handler
	handlerPtr uintptr
}

// matches reports whether the subscription wants e.
func (s *subscription) matches(e Event) bool {
	if s.hasKind {
		return e.Kind == s.kind
	}
	return s.predicate(e)
}

// Bus is the in-process domain event bus (spec §4.6): typed
// subscriptions, synchronous and concurrent publish, and a bounded ring
// buffer for diagnostic replay.
type Bus struct {
	mu     sync.Mutex
	subs   []*subscription
	ring   *ringBuffer
	logger *slog.Logger
}

// New constructs a Bus with a ring buffer of the given capacity (<=0
// defaults to 10,000, spec §4.6's default N). A nil logger defaults to
// slog.Default(); handler panics are recovered and logged there rather
// than propagated, per the bus's isolation contract.
func New(bufferCapacity int, logger *slog.Logger) *Bus {
	if bufferCapacity <= 0 {
		bufferCapacity = 10000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{ring: newRingBuffer(bufferCapacity), logger: logger}
}

// Subscribe registers handler for every event of kind. Re-registering the
// same handler (by reference equality) for the same kind is a no-op.
func (b *Bus) Subscribe(kind Kind, handler Handler) Handle {
	return b.register(&subscription{kind: kind, hasKind: true, handler: handler, handlerPtr: funcPtr(handler)})
}

// SubscribeMatching registers handler for every event predicate accepts.
// predicate is itself compared by reference equality for coalescing,
// alongside handler.
func (b *Bus) SubscribeMatching(predicate Predicate, handler Handler) Handle {
	return b.register(&subscription{predicate: predicate, handler: handler, handlerPtr: funcPtr(handler)})
}

func (b *Bus) register(sub *subscription) Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.subs {
		if existing.hasKind == sub.hasKind && existing.kind == sub.kind && existing.handlerPtr == sub.handlerPtr {
			if !sub.hasKind && funcPtr(existing.predicate) != funcPtr(sub.predicate) {
				continue
			}
			return existing.handle // coalesced: identical registration already present
		}
	}

	sub.handle = Handle(uuid.New())
	b.subs = append(b.subs, sub)
	return sub.handle
}

// Unsubscribe removes a prior subscription. Unsubscribing an unknown or
// already-removed handle is a no-op.
func (b *Bus) Unsubscribe(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.handle == h {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every matching handler synchronously, in
// registration order, before returning. A handler panic is recovered and
// logged; it does not prevent later handlers from running (spec §4.6).
func (b *Bus) Publish(e Event) {
	b.ring.append(e)
	for _, sub := range b.snapshotSubs() {
		if sub.matches(e) {
			b.invoke(sub, e)
		}
	}
}

// PublishBatch publishes events in order, as a single state-machine
// transition's atomic event set (spec §4.7): every handler sees them in
// emission order before PublishBatch returns.
func (b *Bus) PublishBatch(batch []Event) {
	for _, e := range batch {
		b.Publish(e)
	}
}

// PublishConcurrent delivers e to every matching handler in its own
// goroutine and waits for all of them to finish (or ctx to be canceled)
// before returning. Handler panics are isolated exactly as in Publish.
func (b *Bus) PublishConcurrent(ctx context.Context, e Event) {
	b.ring.append(e)
	subs := b.snapshotSubs()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, sub := range subs {
			if !sub.matches(e) {
				continue
			}
			wg.Add(1)
			go func(sub *subscription) {
				defer wg.Done()
				b.invoke(sub, e)
			}(sub)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (b *Bus) invoke(sub *subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "event_kind", e.Kind, "event_id", e.EventID, "recovered", r)
		}
	}()
	sub.handler(e)
}

func (b *Bus) snapshotSubs() []*subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*subscription{}, b.subs...)
}

// Recent returns up to limit of the most recently published events, in
// chronological order, from the ring buffer. limit<=0 returns everything
// currently retained.
func (b *Bus) Recent(limit int) []Event {
	return b.ring.recent(limit)
}

// funcPtr returns the identity of a Handler or Predicate value: the
// address of its closure, so two copies of one func value compare equal
// while separate closures built from the same literal do not.
func funcPtr(f any) uintptr {
	switch fn := f.(type) {
	case Handler:
		if fn == nil {
			return 0
		}
		return uintptr(*(*unsafe.Pointer)(unsafe.Pointer(&fn)))
	case Predicate:
		if fn == nil {
			return 0
		}
		return uintptr(*(*unsafe.Pointer)(unsafe.Pointer(&fn)))
	}
	return 0
}
