package event

import (
	"sync"
	"sync/atomic"
)

// Handler receives published events.
type Handler func(Event)

// Bus fans canvas events out to subscribers.
type Bus interface {
	// Publish delivers an event to all matching subscribers before
	// returning. Events published after Close are dropped.
	Publish(evt Event)

	// Subscribe registers a handler for specific event types.
	Subscribe(types []Type, handler Handler) Subscription

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler Handler) Subscription

	// Close shuts down the bus; further publishes are dropped.
	Close() error
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe removes the subscription.
	Unsubscribe()

	// Pause temporarily stops delivery.
	Pause()

	// Resume continues delivery after pause.
	Resume()

	// IsPaused returns true if the subscription is paused.
	IsPaused() bool
}

// LocalBus is an in-process Bus. Delivery is synchronous: Publish calls
// each matching handler on the publishing goroutine, so subscribers observe
// events in the exact order the editor produced them. Handlers must not
// block.
type LocalBus struct {
	mu        sync.RWMutex
	byType    map[Type]map[int64]*subscription
	wildcards map[int64]*subscription

	nextID atomic.Int64
	closed atomic.Bool
}

var _ Bus = (*LocalBus)(nil)

// NewBus creates a new local event bus.
func NewBus() *LocalBus {
	return &LocalBus{
		byType:    make(map[Type]map[int64]*subscription),
		wildcards: make(map[int64]*subscription),
	}
}

// subscription is the internal Subscription implementation.
type subscription struct {
	id      int64
	types   []Type // empty = all types
	handler Handler
	paused  atomic.Bool
	bus     *LocalBus
}

// Publish implements Bus.
func (b *LocalBus) Publish(evt Event) {
	if b.closed.Load() {
		return
	}

	// Snapshot matching subscriptions, then dispatch outside the lock so
	// handlers may subscribe or unsubscribe.
	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.wildcards)+4)
	if typed, ok := b.byType[evt.Type]; ok {
		for _, sub := range typed {
			subs = append(subs, sub)
		}
	}
	for _, sub := range b.wildcards {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.paused.Load() {
			continue
		}
		sub.handler(evt)
	}
}

// Subscribe implements Bus.
func (b *LocalBus) Subscribe(types []Type, handler Handler) Subscription {
	return b.subscribe(types, handler)
}

// SubscribeAll implements Bus.
func (b *LocalBus) SubscribeAll(handler Handler) Subscription {
	return b.subscribe(nil, handler)
}

func (b *LocalBus) subscribe(types []Type, handler Handler) *subscription {
	sub := &subscription{
		id:      b.nextID.Add(1),
		types:   types,
		handler: handler,
		bus:     b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(types) == 0 {
		b.wildcards[sub.id] = sub
		return sub
	}
	for _, t := range types {
		if b.byType[t] == nil {
			b.byType[t] = make(map[int64]*subscription)
		}
		b.byType[t][sub.id] = sub
	}
	return sub
}

// Close implements Bus.
func (b *LocalBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.byType = make(map[Type]map[int64]*subscription)
	b.wildcards = make(map[int64]*subscription)
	return nil
}

// Unsubscribe implements Subscription.
func (s *subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	delete(s.bus.wildcards, s.id)
	for _, t := range s.types {
		if typed, ok := s.bus.byType[t]; ok {
			delete(typed, s.id)
		}
	}
}

// Pause implements Subscription.
func (s *subscription) Pause() {
	s.paused.Store(true)
}

// Resume implements Subscription.
func (s *subscription) Resume() {
	s.paused.Store(false)
}

// IsPaused implements Subscription.
func (s *subscription) IsPaused() bool {
	return s.paused.Load()
}
