package entity

import "time"

const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

type MentorshipRequest struct {
	Id          string     `bson:"_id" json:"id"`
	MentorId    string     `bson:"mentorId" json:"mentorId"`
	StudentId   string     `bson:"studentId" json:"studentId"`
	Message     string     `bson:"message,omitempty" json:"message,omitempty"`
	Status      string     `bson:"status" json:"status"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	RespondedAt *time.Time `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

const (
	SessionStatusScheduled = "scheduled"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

type Session struct {
	Id          string    `bson:"_id" json:"id"`
	MentorId    string    `bson:"mentorId" json:"mentorId"`
	StudentId   string    `bson:"studentId" json:"studentId"`
	Topic       string    `bson:"topic,omitempty" json:"topic,omitempty"`
	ScheduledAt time.Time `bson:"scheduledAt" json:"scheduledAt"`
	Status      string    `bson:"status" json:"status"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
