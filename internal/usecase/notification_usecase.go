package usecase

import (
	"context"
	"encoding/json"
	"log"

	"mentorhub/infrastructure/feed"
	"mentorhub/internal/entity"
	"mentorhub/internal/repository"
)

const notificationsTable = "notifications"

// NotificationUsecase is both the emitter other domain actions call into
// and the read side backing the unread badge. Emit is advisory: callers
// must never fail their own operation because a notification write failed.
type NotificationUsecase interface {
	Emit(ctx context.Context, recipientId, title, message string) error
	Index(ctx context.Context, userId string) ([]entity.Notification, error)
	MarkRead(ctx context.Context, notificationId, userId string) error
	MarkAllRead(ctx context.Context, userId string) error
	UnreadCount(ctx context.Context, userId string) (int64, error)
	SubscribeUnreadCount(ctx context.Context, userId string) (*CountSubscription, error)
}

type notificationUsecase struct {
	notificationRepo repository.NotificationRepository
	changeFeed       feed.Feed
}

func NewNotificationUsecase(notificationRepo repository.NotificationRepository, changeFeed feed.Feed) NotificationUsecase {
	return &notificationUsecase{
		notificationRepo: notificationRepo,
		changeFeed:       changeFeed,
	}
}

// Emit writes one notification row per call. No batching or dedup: rapid
// events each get their own row.
func (u *notificationUsecase) Emit(ctx context.Context, recipientId, title, message string) error {
	notification := entity.Notification{
		UserId:  recipientId,
		Title:   title,
		Message: message,
	}

	created, err := u.notificationRepo.Create(ctx, notification)
	if err != nil {
		return err
	}

	u.publish(ctx, feed.EventInsert, created)
	return nil
}

func (u *notificationUsecase) Index(ctx context.Context, userId string) ([]entity.Notification, error) {
	return u.notificationRepo.GetByUserId(ctx, userId)
}

func (u *notificationUsecase) MarkRead(ctx context.Context, notificationId, userId string) error {
	err := u.notificationRepo.MarkRead(ctx, notificationId, userId)
	if err != nil {
		return err
	}

	u.publish(ctx, feed.EventUpdate, entity.Notification{Id: notificationId, UserId: userId, IsRead: true})
	return nil
}

func (u *notificationUsecase) MarkAllRead(ctx context.Context, userId string) error {
	err := u.notificationRepo.MarkAllRead(ctx, userId)
	if err != nil {
		return err
	}

	u.publish(ctx, feed.EventUpdate, entity.Notification{UserId: userId, IsRead: true})
	return nil
}

// UnreadCount is always derived from the store; there is no counter state
// that could drift from the notification rows.
func (u *notificationUsecase) UnreadCount(ctx context.Context, userId string) (int64, error) {
	return u.notificationRepo.CountUnread(ctx, userId)
}

// publish pushes a change event for the recipient's partition. Best-effort:
// live badges that miss an event catch up on the next one or on refetch.
func (u *notificationUsecase) publish(ctx context.Context, eventType feed.EventType, notification entity.Notification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		log.Printf("marshal notification event: %v", err)
		return
	}

	err = u.changeFeed.Publish(ctx, feed.Event{
		Table:   notificationsTable,
		Type:    eventType,
		Key:     notification.UserId,
		Payload: payload,
	})
	if err != nil {
		log.Printf("publish notification event: %v", err)
	}
}

// CountSubscription recomputes the unread count from the store on every
// insert or update touching the user's notifications. Consumers only care
// about the latest value: when they lag, stale counts are replaced rather
// than queued.
type CountSubscription struct {
	counts chan int64
	sub    feed.Subscription
}

func (u *notificationUsecase) SubscribeUnreadCount(ctx context.Context, userId string) (*CountSubscription, error) {
	sub, err := u.changeFeed.Subscribe(ctx, notificationsTable, userId, feed.EventInsert, feed.EventUpdate)
	if err != nil {
		return nil, err
	}

	cs := &CountSubscription{
		counts: make(chan int64, 1),
		sub:    sub,
	}

	go func() {
		defer close(cs.counts)
		for range sub.Events() {
			count, err := u.notificationRepo.CountUnread(ctx, userId)
			if err != nil {
				log.Printf("recount unread for %s: %v", userId, err)
				continue
			}
			cs.emit(count)
		}
	}()

	return cs, nil
}

func (cs *CountSubscription) emit(count int64) {
	for {
		select {
		case cs.counts <- count:
			return
		default:
			// Discard the stale value and retry with the fresh one.
			select {
			case <-cs.counts:
			default:
			}
		}
	}
}

func (cs *CountSubscription) Counts() <-chan int64 {
	return cs.counts
}

func (cs *CountSubscription) Close() {
	cs.sub.Close()
}
