package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"mentorhub/infrastructure/ws"
	"mentorhub/internal/usecase"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebsocketHandler struct {
	hub            ws.IHub
	authUc         usecase.AuthUsecase
	userUc         usecase.UserUsecase
	messageUc      usecase.MessageUsecase
	notificationUc usecase.NotificationUsecase
}

func NewWebsocketHandler(
	hub ws.IHub,
	authUc usecase.AuthUsecase,
	userUc usecase.UserUsecase,
	messageUc usecase.MessageUsecase,
	notificationUc usecase.NotificationUsecase,
) *WebsocketHandler {
	return &WebsocketHandler{
		hub:            hub,
		authUc:         authUc,
		userUc:         userUc,
		messageUc:      messageUc,
		notificationUc: notificationUc,
	}
}

// HandleWebSocket upgrades the connection for an authenticated user and
// serves frames until the socket drops. One socket carries all of the
// user's live traffic: per-conversation message streams plus the unread
// notification count.
func (h *WebsocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authUc.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade error: %v", err)
		return
	}

	// Session context outlives the request context; it ends when the
	// socket does.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.userUc.SetOnline(ctx, claims.UserId, true); err != nil {
		log.Printf("SetOnline error: %v", err)
	}

	client := ws.NewClient(claims.UserId, h.hub, conn)
	h.hub.RegisterClient(client)

	session := &clientSession{
		handler: h,
		userId:  claims.UserId,
		ctx:     ctx,
		subs:    make(map[string]*usecase.MessageSubscription),
	}
	defer session.closeAll()

	h.watchUnreadCount(ctx, claims.UserId)

	go client.WritePump()
	client.ReadPump(func(data []byte) {
		session.handleFrame(data)
	})
}

// watchUnreadCount pushes the current badge value on connect and again on
// every notification change for the user.
func (h *WebsocketHandler) watchUnreadCount(ctx context.Context, userId string) {
	if count, err := h.notificationUc.UnreadCount(ctx, userId); err == nil {
		h.sendUnreadCount(userId, count)
	} else {
		log.Printf("initial unread count for %s: %v", userId, err)
	}

	countSub, err := h.notificationUc.SubscribeUnreadCount(ctx, userId)
	if err != nil {
		log.Printf("subscribe unread count for %s: %v", userId, err)
		return
	}

	go func() {
		defer countSub.Close()
		for {
			select {
			case count, ok := <-countSub.Counts():
				if !ok {
					return
				}
				h.sendUnreadCount(userId, count)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *WebsocketHandler) sendUnreadCount(userId string, count int64) {
	frame := ServerFrame{
		Type:        FrameUnreadCount,
		UnreadCount: &count,
	}
	if data, err := json.Marshal(frame); err == nil {
		h.hub.SendToClient(userId, data)
	}
}

func (h *WebsocketHandler) sendError(userId, message string) {
	frame := ServerFrame{
		Type:  FrameError,
		Error: message,
	}
	if data, err := json.Marshal(frame); err == nil {
		h.hub.SendToClient(userId, data)
	}
}

// clientSession tracks one socket's conversation subscriptions so they can
// be torn down together when the user leaves.
type clientSession struct {
	handler *WebsocketHandler
	userId  string
	ctx     context.Context

	mu   sync.Mutex
	subs map[string]*usecase.MessageSubscription
}

func (s *clientSession) handleFrame(data []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Printf("Unknown frame from %s: %v", s.userId, err)
		return
	}

	switch frame.Type {
	case FrameSubscribe:
		s.subscribe(frame.ConversationId)
	case FrameUnsubscribe:
		s.unsubscribe(frame.ConversationId)
	case FrameMessage:
		s.send(frame)
	case FrameRead:
		s.markRead(frame.ConversationId)
	default:
		log.Printf("Unknown frame type %q from %s", frame.Type, s.userId)
	}
}

func (s *clientSession) subscribe(conversationId string) {
	if conversationId == "" {
		return
	}

	s.mu.Lock()
	if _, exists := s.subs[conversationId]; exists {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	sub, err := s.handler.messageUc.Subscribe(s.ctx, conversationId, s.userId)
	if err != nil {
		log.Printf("Subscribe error for %s: %v", s.userId, err)
		s.handler.sendError(s.userId, "failed to subscribe to conversation")
		return
	}

	s.mu.Lock()
	s.subs[conversationId] = sub
	s.mu.Unlock()

	go func() {
		for message := range sub.Messages() {
			message := message
			frame := ServerFrame{
				Type:           FrameServerMessage,
				ConversationId: conversationId,
				Message:        &message,
			}
			data, err := json.Marshal(frame)
			if err != nil {
				continue
			}
			s.handler.hub.SendToClient(s.userId, data)
		}
	}()
}

func (s *clientSession) unsubscribe(conversationId string) {
	s.mu.Lock()
	sub, exists := s.subs[conversationId]
	if exists {
		delete(s.subs, conversationId)
	}
	s.mu.Unlock()

	if exists {
		sub.Close()
	}
}

func (s *clientSession) send(frame ClientFrame) {
	_, err := s.handler.messageUc.Send(s.ctx, frame.ConversationId, s.userId, frame.Body, frame.FileUrl)
	if err != nil {
		log.Printf("Send error from %s: %v", s.userId, err)
		s.handler.sendError(s.userId, "failed to send message")
	}
}

func (s *clientSession) markRead(conversationId string) {
	if err := s.handler.messageUc.MarkRead(s.ctx, conversationId, s.userId); err != nil {
		log.Printf("MarkRead error from %s: %v", s.userId, err)
	}
}

func (s *clientSession) closeAll() {
	s.mu.Lock()
	subs := s.subs
	s.subs = make(map[string]*usecase.MessageSubscription)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
