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
	ErrRequestNotFound = errors.New("mentorship request not found")
	ErrSessionNotFound = errors.New("session not found")
)

type MentorshipRepository interface {
	CreateRequest(ctx context.Context, request entity.MentorshipRequest) (entity.MentorshipRequest, error)
	GetRequest(ctx context.Context, requestId string) (entity.MentorshipRequest, error)
	GetPendingRequestByPair(ctx context.Context, mentorId, studentId string) (entity.MentorshipRequest, error)
	PendingRequestsForMentor(ctx context.Context, mentorId string) ([]entity.MentorshipRequest, error)
	UpdateRequestStatus(ctx context.Context, requestId, status string) error

	CreateSession(ctx context.Context, session entity.Session) (entity.Session, error)
	SessionsForUser(ctx context.Context, userId string) ([]entity.Session, error)
}

type mentorshipRepository struct {
	db *mongo.Database
}

func NewMentorshipRepository(db *mongo.Database) MentorshipRepository {
	return &mentorshipRepository{
		db: db,
	}
}

func (r *mentorshipRepository) CreateRequest(ctx context.Context, request entity.MentorshipRequest) (entity.MentorshipRequest, error) {
	collection := r.db.Collection("mentorship_requests")

	request.Id = uuid.New().String()
	request.Status = entity.RequestStatusPending
	request.CreatedAt = time.Now()

	_, err := collection.InsertOne(ctx, request)
	if err != nil {
		return entity.MentorshipRequest{}, err
	}

	return request, nil
}

func (r *mentorshipRepository) GetRequest(ctx context.Context, requestId string) (entity.MentorshipRequest, error) {
	collection := r.db.Collection("mentorship_requests")
	filter := bson.M{"_id": requestId}

	var request entity.MentorshipRequest
	err := collection.FindOne(ctx, filter).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.MentorshipRequest{}, ErrRequestNotFound
		}
		return entity.MentorshipRequest{}, err
	}

	return request, nil
}

func (r *mentorshipRepository) GetPendingRequestByPair(ctx context.Context, mentorId, studentId string) (entity.MentorshipRequest, error) {
	collection := r.db.Collection("mentorship_requests")
	filter := bson.M{
		"mentorId":  mentorId,
		"studentId": studentId,
		"status":    entity.RequestStatusPending,
	}

	var request entity.MentorshipRequest
	err := collection.FindOne(ctx, filter).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.MentorshipRequest{}, ErrRequestNotFound
		}
		return entity.MentorshipRequest{}, err
	}

	return request, nil
}

func (r *mentorshipRepository) PendingRequestsForMentor(ctx context.Context, mentorId string) ([]entity.MentorshipRequest, error) {
	collection := r.db.Collection("mentorship_requests")
	filter := bson.M{
		"mentorId": mentorId,
		"status":   entity.RequestStatusPending,
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var requests []entity.MentorshipRequest
	err = cursor.All(ctx, &requests)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *mentorshipRepository) UpdateRequestStatus(ctx context.Context, requestId, status string) error {
	collection := r.db.Collection("mentorship_requests")
	filter := bson.M{"_id": requestId}
	now := time.Now()

	update := bson.M{
		"$set": bson.M{
			"status":      status,
			"respondedAt": now,
		},
	}

	_, err := collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *mentorshipRepository) CreateSession(ctx context.Context, session entity.Session) (entity.Session, error) {
	collection := r.db.Collection("sessions")

	session.Id = uuid.New().String()
	session.Status = entity.SessionStatusScheduled
	session.CreatedAt = time.Now()

	_, err := collection.InsertOne(ctx, session)
	if err != nil {
		return entity.Session{}, err
	}

	return session, nil
}

func (r *mentorshipRepository) SessionsForUser(ctx context.Context, userId string) ([]entity.Session, error) {
	collection := r.db.Collection("sessions")
	filter := bson.M{
		"$or": bson.A{
			bson.M{"mentorId": userId},
			bson.M{"studentId": userId},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var sessions []entity.Session
	err = cursor.All(ctx, &sessions)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}
