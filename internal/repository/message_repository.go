package repository

import (
	"context"
	"errors"
	"time"

	"mentorhub/internal/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepository interface {
	Get(ctx context.Context, messageId string) (entity.Message, error)
	Create(ctx context.Context, message entity.Message) (entity.Message, error)
	GetByConversationId(ctx context.Context, conversationId string, limit, offset int) ([]entity.Message, error)
	MarkConversationRead(ctx context.Context, conversationId, readerId string) error
}

type messageRepository struct {
	db *mongo.Database
}

func NewMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		db: db,
	}
}

func (r *messageRepository) Get(ctx context.Context, messageId string) (entity.Message, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": messageId}

	var message entity.Message
	err := collection.FindOne(ctx, filter).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Message{}, ErrMessageNotFound
		}
		return entity.Message{}, err
	}

	return message, nil
}

func (r *messageRepository) Create(ctx context.Context, message entity.Message) (entity.Message, error) {
	collection := r.db.Collection("messages")
	message.Id = uuid.New().String()
	message.CreatedAt = time.Now()
	message.IsRead = false

	_, err := collection.InsertOne(ctx, message)
	if err != nil {
		return entity.Message{}, err
	}

	return message, nil
}

// GetByConversationId returns messages in display order: ascending by
// creation time, ties broken by id so repeated reads are stable.
func (r *messageRepository) GetByConversationId(ctx context.Context, conversationId string, limit, offset int) ([]entity.Message, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{"conversationId": conversationId}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	opts.SetSort(bson.D{
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var messages []entity.Message
	err = cursor.All(ctx, &messages)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// MarkConversationRead flips isRead on every unread message in the
// conversation that the reader did not send. The filter makes the write
// idempotent and keeps readers from touching their own messages.
func (r *messageRepository) MarkConversationRead(ctx context.Context, conversationId, readerId string) error {
	collection := r.db.Collection("messages")
	filter := bson.M{
		"conversationId": conversationId,
		"senderId":       bson.M{"$ne": readerId},
		"isRead":         false,
	}
	update := bson.M{
		"$set": bson.M{
			"isRead": true,
		},
	}

	_, err := collection.UpdateMany(ctx, filter, update)
	return err
}
