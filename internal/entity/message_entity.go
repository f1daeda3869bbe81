package entity

import "time"

type Message struct {
	Id             string    `bson:"_id" json:"id"`
	ConversationId string    `bson:"conversationId" json:"conversationId"`
	SenderId       string    `bson:"senderId" json:"senderId"`
	Body           string    `bson:"body" json:"body"`
	FileUrl        string    `bson:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	IsRead         bool      `bson:"isRead" json:"isRead"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// HasContent reports whether the message carries anything worth storing.
// A message needs body text, a file reference, or both.
func (m Message) HasContent() bool {
	return m.Body != "" || m.FileUrl != ""
}
