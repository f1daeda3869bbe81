package feed

import (
	"context"
	"errors"
	"log"
	"sync"
)

var ErrFeedClosed = errors.New("feed is closed")

// MemoryFeed is a single-process change feed. Subscribers that cannot keep
// up have events dropped rather than blocking publishers; they are expected
// to refetch from the store on the next event or user action.
type MemoryFeed struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySubscription // keyed by table + "\x00" + key
	closed bool
}

type memorySubscription struct {
	feed   *MemoryFeed
	target string
	types  []EventType
	events chan Event
	once   sync.Once
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{
		subs: make(map[string][]*memorySubscription),
	}
}

func target(table, key string) string {
	return table + "\x00" + key
}

func (f *MemoryFeed) Publish(_ context.Context, event Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return ErrFeedClosed
	}

	for _, sub := range f.subs[target(event.Table, event.Key)] {
		if !matchesType(sub.types, event.Type) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			log.Printf("feed: dropping %s event on %s, slow subscriber", event.Type, event.Table)
		}
	}
	return nil
}

func (f *MemoryFeed) Subscribe(_ context.Context, table, key string, types ...EventType) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrFeedClosed
	}

	sub := &memorySubscription{
		feed:   f,
		target: target(table, key),
		types:  types,
		events: make(chan Event, 256),
	}
	f.subs[sub.target] = append(f.subs[sub.target], sub)
	return sub, nil
}

func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	for _, subs := range f.subs {
		for _, sub := range subs {
			sub.once.Do(func() { close(sub.events) })
		}
	}
	f.subs = make(map[string][]*memorySubscription)
	return nil
}

func (s *memorySubscription) Events() <-chan Event {
	return s.events
}

func (s *memorySubscription) Close() {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()

	subs := s.feed.subs[s.target]
	for i, sub := range subs {
		if sub == s {
			s.feed.subs[s.target] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	s.once.Do(func() { close(s.events) })
}
