package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"mentorhub/infrastructure/feed"
	"mentorhub/internal/entity"
	"mentorhub/internal/repository"
)

const messagesTable = "messages"

// previewLimit caps how much of a message body a notification carries.
const previewLimit = 80

var (
	ErrNotParticipant = errors.New("user is not a participant of this conversation")
	ErrEmptyMessage   = errors.New("message needs body text or a file")
)

// MessageUsecase is the message channel: the conversation's history plus
// live delivery of new messages to open viewers.
type MessageUsecase interface {
	Send(ctx context.Context, conversationId, senderId, body, fileUrl string) (entity.Message, error)
	List(ctx context.Context, conversationId, userId string) ([]entity.Message, error)
	MarkRead(ctx context.Context, conversationId, readerId string) error
	Subscribe(ctx context.Context, conversationId, userId string) (*MessageSubscription, error)
}

type messageUsecase struct {
	messageRepo      repository.MessageRepository
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	notificationUc   NotificationUsecase
	changeFeed       feed.Feed
}

func NewMessageUsecase(
	messageRepo repository.MessageRepository,
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	notificationUc NotificationUsecase,
	changeFeed feed.Feed,
) MessageUsecase {
	return &messageUsecase{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		notificationUc:   notificationUc,
		changeFeed:       changeFeed,
	}
}

// Send validates, persists, bumps the conversation's updatedAt, and then
// fires the advisory side effects: a notification for the other party and
// a feed event for live viewers. Only the message write is a hard
// guarantee; everything after it is logged on failure, never rolled back.
func (u *messageUsecase) Send(ctx context.Context, conversationId, senderId, body, fileUrl string) (entity.Message, error) {
	conversation, err := u.conversationRepo.Get(ctx, conversationId)
	if err != nil {
		return entity.Message{}, err
	}

	if !conversation.HasParticipant(senderId) {
		return entity.Message{}, ErrNotParticipant
	}

	body = strings.TrimSpace(body)
	message := entity.Message{
		ConversationId: conversationId,
		SenderId:       senderId,
		Body:           body,
		FileUrl:        fileUrl,
	}
	if !message.HasContent() {
		return entity.Message{}, ErrEmptyMessage
	}

	message, err = u.messageRepo.Create(ctx, message)
	if err != nil {
		return entity.Message{}, err
	}

	if err := u.conversationRepo.TouchUpdatedAt(ctx, conversationId, message.CreatedAt); err != nil {
		log.Printf("touch conversation %s: %v", conversationId, err)
	}

	u.notifyRecipient(ctx, conversation, message)

	if payload, err := json.Marshal(message); err == nil {
		err = u.changeFeed.Publish(ctx, feed.Event{
			Table:   messagesTable,
			Type:    feed.EventInsert,
			Key:     conversationId,
			Payload: payload,
		})
		if err != nil {
			log.Printf("publish message event: %v", err)
		}
	}

	return message, nil
}

func (u *messageUsecase) notifyRecipient(ctx context.Context, conversation entity.Conversation, message entity.Message) {
	recipientId := conversation.OtherParty(message.SenderId)

	summary := "sent a file"
	if message.Body != "" {
		summary = truncate(message.Body, previewLimit)
	}

	senderName := message.SenderId
	if sender, err := u.userRepo.Get(ctx, message.SenderId); err == nil {
		senderName = sender.FullName
	}

	err := u.notificationUc.Emit(ctx, recipientId, "New Message", fmt.Sprintf("%s: %s", senderName, summary))
	if err != nil {
		log.Printf("notify %s about message %s: %v", recipientId, message.Id, err)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func (u *messageUsecase) List(ctx context.Context, conversationId, userId string) ([]entity.Message, error) {
	conversation, err := u.conversationRepo.Get(ctx, conversationId)
	if err != nil {
		return nil, err
	}

	if !conversation.HasParticipant(userId) {
		return nil, ErrNotParticipant
	}

	return u.messageRepo.GetByConversationId(ctx, conversationId, 0, 0)
}

// MarkRead flips every message in the conversation not sent by readerId.
// The repository filter only matches unread rows from the other party, so
// concurrent and repeated calls are safe.
func (u *messageUsecase) MarkRead(ctx context.Context, conversationId, readerId string) error {
	conversation, err := u.conversationRepo.Get(ctx, conversationId)
	if err != nil {
		return err
	}

	if !conversation.HasParticipant(readerId) {
		return ErrNotParticipant
	}

	if err := u.messageRepo.MarkConversationRead(ctx, conversationId, readerId); err != nil {
		return err
	}

	payload, _ := json.Marshal(map[string]string{
		"conversationId": conversationId,
		"readerId":       readerId,
	})
	err = u.changeFeed.Publish(ctx, feed.Event{
		Table:   messagesTable,
		Type:    feed.EventUpdate,
		Key:     conversationId,
		Payload: payload,
	})
	if err != nil {
		log.Printf("publish read event: %v", err)
	}

	return nil
}

// MessageSubscription delivers every message inserted into the
// conversation from the point of subscribing, in insertion order,
// at-least-once. Consumers deduplicate by message id.
type MessageSubscription struct {
	messages chan entity.Message
	sub      feed.Subscription
}

func (u *messageUsecase) Subscribe(ctx context.Context, conversationId, userId string) (*MessageSubscription, error) {
	conversation, err := u.conversationRepo.Get(ctx, conversationId)
	if err != nil {
		return nil, err
	}

	if !conversation.HasParticipant(userId) {
		return nil, ErrNotParticipant
	}

	sub, err := u.changeFeed.Subscribe(ctx, messagesTable, conversationId, feed.EventInsert)
	if err != nil {
		return nil, err
	}

	ms := &MessageSubscription{
		messages: make(chan entity.Message, 64),
		sub:      sub,
	}

	go func() {
		defer close(ms.messages)
		for event := range sub.Events() {
			var message entity.Message
			if err := json.Unmarshal(event.Payload, &message); err != nil {
				log.Printf("decode message event: %v", err)
				continue
			}
			select {
			case ms.messages <- message:
			default:
				log.Printf("dropping live message for conversation %s, slow viewer", conversationId)
			}
		}
	}()

	return ms, nil
}

func (ms *MessageSubscription) Messages() <-chan entity.Message {
	return ms.messages
}

func (ms *MessageSubscription) Close() {
	ms.sub.Close()
}
