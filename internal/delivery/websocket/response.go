package websocket

import "mentorhub/internal/entity"

type ServerFrame struct {
	Type           string          `json:"type"`
	ConversationId string          `json:"conversationId,omitempty"`
	Message        *entity.Message `json:"message,omitempty"`
	UnreadCount    *int64          `json:"unreadCount,omitempty"`
	Error          string          `json:"error,omitempty"`
}

const (
	FrameServerMessage = "message"
	FrameUnreadCount   = "unreadCount"
	FrameError         = "error"
)
