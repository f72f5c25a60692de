package event

import (
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
)

// Handler is a function that handles an event.
type Handler func(Event)

type subscription struct {
	id      uint64
	types   []string // empty matches every event type
	handler Handler
}

func (s subscription) matches(eventType string) bool {
	return len(s.types) == 0 || slices.Contains(s.types, eventType)
}

// Bus is a synchronous pub-sub event bus. The zero value is ready to use.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler for the given event types, or for every event
// when types is empty. The returned function removes the subscription and is
// safe to call more than once.
func (b *Bus) Subscribe(handler Handler, types ...string) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, types: slices.Clone(types), handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
}

// Publish delivers event to every matching handler in registration order.
// Handlers run on the caller's goroutine. A panicking handler is recovered
// and logged; delivery continues with the next one.
func (b *Bus) Publish(event Event) {
	eventType := event.EventType()

	b.mu.RLock()
	matched := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.matches(eventType) {
			matched = append(matched, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range matched {
		safeCall(h, event)
	}
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked",
				"event", event.EventType(),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	handler(event)
}
