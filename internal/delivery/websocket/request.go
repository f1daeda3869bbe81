package websocket

// ClientFrame is any frame a connected client may send. Type selects the
// action; the other fields are read as the action needs them.
type ClientFrame struct {
	Type           string `json:"type"`
	ConversationId string `json:"conversationId,omitempty"`
	Body           string `json:"body,omitempty"`
	FileUrl        string `json:"fileUrl,omitempty"`
}

const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameMessage     = "message"
	FrameRead        = "read"
)
