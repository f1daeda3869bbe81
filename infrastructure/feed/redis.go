package feed

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisFeed distributes row-change events across servers over Redis
// pub/sub. Each (table, key) partition maps to one channel, so a
// subscriber only receives traffic for the rows it watches.
type RedisFeed struct {
	redisClient *redis.Client
	serverID    string

	mu     sync.Mutex
	subs   map[*redisSubscription]struct{}
	closed bool
}

type wireEvent struct {
	FromServerID string `json:"fromServerId"`
	Event        Event  `json:"event"`
}

func NewRedisFeed(redisAddr string, serverID string) *RedisFeed {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	return &RedisFeed{
		redisClient: rdb,
		serverID:    serverID,
		subs:        make(map[*redisSubscription]struct{}),
	}
}

func channelName(table, key string) string {
	return "feed:" + table + ":" + key
}

func (f *RedisFeed) Publish(ctx context.Context, event Event) error {
	msg := wireEvent{
		FromServerID: f.serverID,
		Event:        event,
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return f.redisClient.Publish(ctx, channelName(event.Table, event.Key), msgBytes).Err()
}

func (f *RedisFeed) Subscribe(ctx context.Context, table, key string, types ...EventType) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrFeedClosed
	}

	pubsub := f.redisClient.Subscribe(ctx, channelName(table, key))

	// Wait for the subscription to be confirmed so no event published
	// after this call returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{
		feed:   f,
		pubsub: pubsub,
		types:  types,
		events: make(chan Event, 256),
	}
	f.subs[sub] = struct{}{}

	go sub.pump()

	return sub, nil
}

func (f *RedisFeed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	subs := make([]*redisSubscription, 0, len(f.subs))
	for sub := range f.subs {
		subs = append(subs, sub)
	}
	f.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	return f.redisClient.Close()
}

type redisSubscription struct {
	feed   *RedisFeed
	pubsub *redis.PubSub
	types  []EventType
	events chan Event
	once   sync.Once
}

func (s *redisSubscription) pump() {
	defer s.once.Do(func() { close(s.events) })

	for msg := range s.pubsub.Channel() {
		var wire wireEvent
		if err := json.Unmarshal([]byte(msg.Payload), &wire); err != nil {
			log.Printf("feed: bad event on %s: %v", msg.Channel, err)
			continue
		}

		if !matchesType(s.types, wire.Event.Type) {
			continue
		}

		select {
		case s.events <- wire.Event:
		default:
			log.Printf("feed: dropping %s event on %s, slow subscriber", wire.Event.Type, wire.Event.Table)
		}
	}
}

func (s *redisSubscription) Events() <-chan Event {
	return s.events
}

func (s *redisSubscription) Close() {
	s.feed.mu.Lock()
	delete(s.feed.subs, s)
	s.feed.mu.Unlock()

	// Closing the PubSub closes its channel, which ends pump and closes
	// the events channel.
	_ = s.pubsub.Close()
}
