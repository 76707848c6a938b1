package store

import (
	"sync"
)

// Subscription receives whole-collection snapshots on C.
// Delivery is latest-wins: a slow reader may skip stale snapshots but always
// observes the most recent one.
type Subscription struct {
	C          <-chan Snapshot
	Collection string

	ch     chan Snapshot
	broker *Broker
	mu     sync.Mutex
	closed bool
}

func (s *Subscription) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- snap:
		return
	default:
	}
	// drop the stale snapshot still waiting in the buffer
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.broker.remove(s)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Broker fans snapshots out to subscribers of each collection
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// NewBroker creates an empty broker
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a subscriber and hands it the initial snapshot
func (b *Broker) Subscribe(initial Snapshot) *Subscription {
	ch := make(chan Snapshot, 1)
	sub := &Subscription{C: ch, Collection: initial.Collection, ch: ch, broker: b}
	sub.deliver(initial)

	b.mu.Lock()
	if b.subs[initial.Collection] == nil {
		b.subs[initial.Collection] = make(map[*Subscription]struct{})
	}
	b.subs[initial.Collection][sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish delivers snap to every subscriber of its collection
func (b *Broker) Publish(snap Snapshot) {
	b.mu.RLock()
	targets := make([]*Subscription, 0, len(b.subs[snap.Collection]))
	for sub := range b.subs[snap.Collection] {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		sub.deliver(snap)
	}
}

// Count returns the number of live subscribers of a collection
func (b *Broker) Count(collection string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[collection])
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[sub.Collection]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.Collection)
		}
	}
}
