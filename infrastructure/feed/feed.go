package feed

import "context"

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
)

// Event is a row-level change on a watched table. Key is the partition
// the event belongs to: the conversation id for messages, the recipient
// user id for notifications.
type Event struct {
	Table   string    `json:"table"`
	Type    EventType `json:"type"`
	Key     string    `json:"key"`
	Payload []byte    `json:"payload"`
}

// Subscription is a live stream of events for one (table, key) partition.
// Events() closes when the subscription is closed. Delivery is
// at-least-once and ordered within the partition; consumers must
// deduplicate by entity id.
type Subscription interface {
	Events() <-chan Event
	Close()
}

// Feed is the change feed: writers publish row changes, viewers subscribe
// to the partitions they care about. Publishing is best-effort from the
// caller's point of view; a failed publish never invalidates the store
// write it describes.
type Feed interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, table, key string, types ...EventType) (Subscription, error)
	Close() error
}

func matchesType(types []EventType, t EventType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}
