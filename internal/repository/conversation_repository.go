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

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationExists   = errors.New("conversation already exists for this pair")
)

type ConversationRepository interface {
	Get(ctx context.Context, conversationId string) (entity.Conversation, error)
	GetByPair(ctx context.Context, mentorId, studentId string) (entity.Conversation, error)
	Create(ctx context.Context, conversation entity.Conversation) (string, error)
	Index(ctx context.Context, userId string) ([]entity.Conversation, error)
	TouchUpdatedAt(ctx context.Context, conversationId string, at time.Time) error
	LastMessage(ctx context.Context, conversationId string) (entity.MessagePreview, error)
}

type conversationRepository struct {
	db *mongo.Database
}

func NewConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{
		db: db,
	}
}

func (r *conversationRepository) Get(ctx context.Context, conversationId string) (entity.Conversation, error) {
	collection := r.db.Collection("conversations")
	filter := bson.M{"_id": conversationId}

	var conversation entity.Conversation
	err := collection.FindOne(ctx, filter).Decode(&conversation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Conversation{}, ErrConversationNotFound
		}
		return entity.Conversation{}, err
	}

	return conversation, nil
}

// GetByPair looks up the conversation for a (mentor, student) pair. Roles
// are fixed, so the pair is queried in role order.
func (r *conversationRepository) GetByPair(ctx context.Context, mentorId, studentId string) (entity.Conversation, error) {
	collection := r.db.Collection("conversations")
	filter := bson.M{
		"mentorId":  mentorId,
		"studentId": studentId,
	}

	var conversation entity.Conversation
	err := collection.FindOne(ctx, filter).Decode(&conversation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Conversation{}, ErrConversationNotFound
		}
		return entity.Conversation{}, err
	}

	return conversation, nil
}

// Create inserts a new conversation. The unique index on
// (mentorId, studentId) turns a creation race into ErrConversationExists,
// which callers resolve by re-reading the pair.
func (r *conversationRepository) Create(ctx context.Context, conversation entity.Conversation) (string, error) {
	collection := r.db.Collection("conversations")
	conversation.Id = uuid.New().String()
	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now

	_, err := collection.InsertOne(ctx, conversation)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrConversationExists
		}
		return "", err
	}

	return conversation.Id, nil
}

// Index returns all conversations where the user is either party, most
// recently active first.
func (r *conversationRepository) Index(ctx context.Context, userId string) ([]entity.Conversation, error) {
	collection := r.db.Collection("conversations")
	filter := bson.M{
		"$or": bson.A{
			bson.M{"mentorId": userId},
			bson.M{"studentId": userId},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var conversations []entity.Conversation
	err = cursor.All(ctx, &conversations)
	if err != nil {
		return nil, err
	}

	return conversations, nil
}

func (r *conversationRepository) TouchUpdatedAt(ctx context.Context, conversationId string, at time.Time) error {
	collection := r.db.Collection("conversations")
	filter := bson.M{"_id": conversationId}
	update := bson.M{
		"$set": bson.M{
			"updatedAt": at,
		},
	}

	_, err := collection.UpdateOne(ctx, filter, update)
	return err
}

// LastMessage projects the newest message of a conversation for the
// directory preview. It is computed per query, never stored on the
// conversation row.
func (r *conversationRepository) LastMessage(ctx context.Context, conversationId string) (entity.MessagePreview, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{"conversationId": conversationId}

	opts := options.FindOne().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	var message entity.Message
	err := collection.FindOne(ctx, filter, opts).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.MessagePreview{}, ErrMessageNotFound
		}
		return entity.MessagePreview{}, err
	}

	return entity.MessagePreview{
		Body:      message.Body,
		CreatedAt: message.CreatedAt,
	}, nil
}
