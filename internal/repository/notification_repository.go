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

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, notification entity.Notification) (entity.Notification, error)
	Get(ctx context.Context, notificationId string) (entity.Notification, error)
	GetByUserId(ctx context.Context, userId string) ([]entity.Notification, error)
	CountUnread(ctx context.Context, userId string) (int64, error)
	MarkRead(ctx context.Context, notificationId, userId string) error
	MarkAllRead(ctx context.Context, userId string) error
}

type notificationRepository struct {
	db *mongo.Database
}

func NewNotificationRepository(db *mongo.Database) NotificationRepository {
	return &notificationRepository{
		db: db,
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification entity.Notification) (entity.Notification, error) {
	collection := r.db.Collection("notifications")
	notification.Id = uuid.New().String()
	notification.CreatedAt = time.Now()
	notification.IsRead = false

	_, err := collection.InsertOne(ctx, notification)
	if err != nil {
		return entity.Notification{}, err
	}

	return notification, nil
}

func (r *notificationRepository) Get(ctx context.Context, notificationId string) (entity.Notification, error) {
	collection := r.db.Collection("notifications")
	filter := bson.M{"_id": notificationId}

	var notification entity.Notification
	err := collection.FindOne(ctx, filter).Decode(&notification)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Notification{}, ErrNotificationNotFound
		}
		return entity.Notification{}, err
	}

	return notification, nil
}

func (r *notificationRepository) GetByUserId(ctx context.Context, userId string) ([]entity.Notification, error) {
	collection := r.db.Collection("notifications")
	filter := bson.M{"userId": userId}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var notifications []entity.Notification
	err = cursor.All(ctx, &notifications)
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userId string) (int64, error) {
	collection := r.db.Collection("notifications")
	filter := bson.M{
		"userId": userId,
		"isRead": false,
	}

	return collection.CountDocuments(ctx, filter)
}

// MarkRead flips one notification, but only if it belongs to userId. The
// ownership check is part of the write filter, not a separate read.
func (r *notificationRepository) MarkRead(ctx context.Context, notificationId, userId string) error {
	collection := r.db.Collection("notifications")
	filter := bson.M{
		"_id":    notificationId,
		"userId": userId,
	}
	update := bson.M{
		"$set": bson.M{
			"isRead": true,
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userId string) error {
	collection := r.db.Collection("notifications")
	filter := bson.M{
		"userId": userId,
		"isRead": false,
	}
	update := bson.M{
		"$set": bson.M{
			"isRead": true,
		},
	}

	_, err := collection.UpdateMany(ctx, filter, update)
	return err
}
