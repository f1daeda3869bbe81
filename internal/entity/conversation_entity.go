package entity

import "time"

// Conversation is the single chat thread between one mentor and one
// student. The pair is unique: the store enforces a compound unique index
// on (mentorId, studentId).
type Conversation struct {
	Id                  string    `bson:"_id" json:"id"`
	MentorId            string    `bson:"mentorId" json:"mentorId"`
	StudentId           string    `bson:"studentId" json:"studentId"`
	MentorshipRequestId string    `bson:"mentorshipRequestId,omitempty" json:"mentorshipRequestId,omitempty"`
	CreatedAt           time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time `bson:"updatedAt" json:"updatedAt"`
}

// OtherParty returns the participant that is not userId, or "" if userId
// is not a participant.
func (c Conversation) OtherParty(userId string) string {
	switch userId {
	case c.MentorId:
		return c.StudentId
	case c.StudentId:
		return c.MentorId
	}
	return ""
}

func (c Conversation) HasParticipant(userId string) bool {
	return userId == c.MentorId || userId == c.StudentId
}

// MessagePreview is the query-time projection of a conversation's latest
// message used by the directory listing. It is never stored.
type MessagePreview struct {
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationSummary is one row of a user's conversation directory.
type ConversationSummary struct {
	Conversation
	OtherUser   Counterpart     `json:"otherUser"`
	LastMessage *MessagePreview `json:"lastMessage,omitempty"`
}
