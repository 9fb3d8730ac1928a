// Package event provides a synchronous event bus with disposable
// subscription handles.
//
//	bus := event.NewBus()
//	sub := bus.Subscribe("order:status-change", func(p interface{}) { ... })
//	defer sub.Cancel()
//	bus.Fire("order:status-change", order)
//
// Cancel is idempotent and guarantees the handler is never invoked after it
// returns, so a view that cancels its subscriptions on teardown cannot leak a
// listener into the next view.
package event

import (
	"sync"
	"sync/atomic"
)

// Handler is a function that receives an event payload.
type Handler func(payload interface{})

// Bus dispatches named events to subscribed handlers in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]*Subscription
}

// Subscription is the handle returned by Subscribe. Cancelling it detaches
// the handler from the bus.
type Subscription struct {
	bus     *Bus
	event   string
	id      uint64
	handler Handler

	cancelled atomic.Bool
	once      sync.Once
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: map[string][]*Subscription{}}
}

// Subscribe registers a handler for the given event name and returns its
// cancellation handle.
func (b *Bus) Subscribe(event string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{bus: b, event: event, id: b.nextID, handler: handler}
	b.subs[event] = append(b.subs[event], sub)
	return sub
}

// Fire dispatches an event synchronously to all live subscriptions, in the
// order they were registered.
func (b *Bus) Fire(event string, payload interface{}) {
	b.mu.RLock()
	hs := make([]*Subscription, len(b.subs[event]))
	copy(hs, b.subs[event])
	b.mu.RUnlock()

	for _, s := range hs {
		if !s.cancelled.Load() {
			s.handler(payload)
		}
	}
}

// FireAsync dispatches the event to all live subscriptions concurrently.
// It returns immediately without waiting for handlers to complete.
func (b *Bus) FireAsync(event string, payload interface{}) {
	b.mu.RLock()
	hs := make([]*Subscription, len(b.subs[event]))
	copy(hs, b.subs[event])
	b.mu.RUnlock()

	for _, s := range hs {
		if s.cancelled.Load() {
			continue
		}
		go s.handler(payload)
	}
}

// ListenerCount reports how many live subscriptions exist for event.
func (b *Bus) ListenerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[event])
}

// Flush removes all subscriptions (useful in tests).
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = map[string][]*Subscription{}
}

// Cancel detaches the subscription from the bus. Safe to call more than once
// and safe to call concurrently with Fire.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.cancelled.Store(true)

		b := s.bus
		b.mu.Lock()
		defer b.mu.Unlock()

		list := b.subs[s.event]
		for i, candidate := range list {
			if candidate.id == s.id {
				b.subs[s.event] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(b.subs[s.event]) == 0 {
			delete(b.subs, s.event)
		}
	})
}

// Group collects subscriptions so a view can cancel them all at once.
type Group struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Add appends subscriptions to the group.
func (g *Group) Add(subs ...*Subscription) {
	g.mu.Lock()
	g.subs = append(g.subs, subs...)
	g.mu.Unlock()
}

// CancelAll cancels every subscription held by the group.
func (g *Group) CancelAll() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
}
