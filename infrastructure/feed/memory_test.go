package feed_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mentorhub/infrastructure/feed"
)

func receiveEvent(t *testing.T, sub feed.Subscription) feed.Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscription channel closed unexpectedly")
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return feed.Event{}
}

func TestPublishDeliversInOrder(t *testing.T) {
	f := feed.NewMemoryFeed()
	defer f.Close()

	ctx := context.Background()
	sub, err := f.Subscribe(ctx, "messages", "conv-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	for i := 0; i < 5; i++ {
		err := f.Publish(ctx, feed.Event{
			Table:   "messages",
			Type:    feed.EventInsert,
			Key:     "conv-1",
			Payload: []byte(fmt.Sprintf("m%d", i)),
		})
		if err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}

	for i := 0; i < 5; i++ {
		event := receiveEvent(t, sub)
		if want := fmt.Sprintf("m%d", i); string(event.Payload) != want {
			t.Fatalf("event %d: got payload %q, want %q", i, event.Payload, want)
		}
	}
}

func TestPartitionsAreIsolated(t *testing.T) {
	f := feed.NewMemoryFeed()
	defer f.Close()

	ctx := context.Background()
	sub, err := f.Subscribe(ctx, "messages", "conv-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	f.Publish(ctx, feed.Event{Table: "messages", Type: feed.EventInsert, Key: "conv-2", Payload: []byte("other conversation")})
	f.Publish(ctx, feed.Event{Table: "notifications", Type: feed.EventInsert, Key: "conv-1", Payload: []byte("other table")})
	f.Publish(ctx, feed.Event{Table: "messages", Type: feed.EventInsert, Key: "conv-1", Payload: []byte("mine")})

	event := receiveEvent(t, sub)
	if string(event.Payload) != "mine" {
		t.Fatalf("got payload %q, want %q", event.Payload, "mine")
	}

	select {
	case extra := <-sub.Events():
		t.Fatalf("unexpected extra event: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTypeFilter(t *testing.T) {
	f := feed.NewMemoryFeed()
	defer f.Close()

	ctx := context.Background()
	sub, err := f.Subscribe(ctx, "messages", "conv-1", feed.EventInsert)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	f.Publish(ctx, feed.Event{Table: "messages", Type: feed.EventUpdate, Key: "conv-1", Payload: []byte("update")})
	f.Publish(ctx, feed.Event{Table: "messages", Type: feed.EventInsert, Key: "conv-1", Payload: []byte("insert")})

	event := receiveEvent(t, sub)
	if event.Type != feed.EventInsert {
		t.Fatalf("got event type %s, want %s", event.Type, feed.EventInsert)
	}
	if string(event.Payload) != "insert" {
		t.Fatalf("got payload %q, want %q", event.Payload, "insert")
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	f := feed.NewMemoryFeed()
	defer f.Close()

	ctx := context.Background()
	sub, err := f.Subscribe(ctx, "messages", "conv-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	sub.Close()

	if _, ok := <-sub.Events(); ok {
		t.Fatal("events channel still open after Close")
	}

	// Publishing to a partition with no subscribers left must not fail.
	err = f.Publish(ctx, feed.Event{Table: "messages", Type: feed.EventInsert, Key: "conv-1"})
	if err != nil {
		t.Fatalf("Publish after subscriber closed: %v", err)
	}
}

func TestClosedFeedRejectsPublishAndSubscribe(t *testing.T) {
	f := feed.NewMemoryFeed()

	ctx := context.Background()
	sub, err := f.Subscribe(ctx, "messages", "conv-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, ok := <-sub.Events(); ok {
		t.Fatal("events channel still open after feed Close")
	}

	err = f.Publish(ctx, feed.Event{Table: "messages", Type: feed.EventInsert, Key: "conv-1"})
	if !errors.Is(err, feed.ErrFeedClosed) {
		t.Fatalf("Publish on closed feed: got %v, want ErrFeedClosed", err)
	}

	_, err = f.Subscribe(ctx, "messages", "conv-1")
	if !errors.Is(err, feed.ErrFeedClosed) {
		t.Fatalf("Subscribe on closed feed: got %v, want ErrFeedClosed", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	f := feed.NewMemoryFeed()
	defer f.Close()

	ctx := context.Background()
	sub, err := f.Subscribe(ctx, "messages", "conv-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	// Overflow the subscriber buffer without draining it. Publish must
	// return promptly every time.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 400; i++ {
			f.Publish(ctx, feed.Event{Table: "messages", Type: feed.EventInsert, Key: "conv-1"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	// Whatever fit in the buffer is still deliverable.
	receiveEvent(t, sub)
}
