package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"mentorhub/infrastructure/ws"
	"mentorhub/internal/repository"
	"mentorhub/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type HttpHandler struct {
	conversationUc usecase.ConversationUsecase
	messageUc      usecase.MessageUsecase
	notificationUc usecase.NotificationUsecase
	mentorshipUc   usecase.MentorshipUsecase
	userUc         usecase.UserUsecase
	hub            ws.IHub
}

func NewHttpHandler(
	conversationUc usecase.ConversationUsecase,
	messageUc usecase.MessageUsecase,
	notificationUc usecase.NotificationUsecase,
	mentorshipUc usecase.MentorshipUsecase,
	userUc usecase.UserUsecase,
	hub ws.IHub,
) *HttpHandler {
	return &HttpHandler{
		conversationUc: conversationUc,
		messageUc:      messageUc,
		notificationUc: notificationUc,
		mentorshipUc:   mentorshipUc,
		userUc:         userUc,
		hub:            hub,
	}
}

type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// writeError maps layer sentinels onto HTTP statuses; anything unmapped is
// a 500 with the detail kept in the log, not the response.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, Response{Message: "user not found"})
	case errors.Is(err, repository.ErrConversationNotFound):
		writeJSON(w, http.StatusNotFound, Response{Message: "conversation not found"})
	case errors.Is(err, repository.ErrNotificationNotFound):
		writeJSON(w, http.StatusNotFound, Response{Message: "notification not found"})
	case errors.Is(err, repository.ErrRequestNotFound):
		writeJSON(w, http.StatusNotFound, Response{Message: "mentorship request not found"})
	case errors.Is(err, repository.ErrConversationExists):
		writeJSON(w, http.StatusConflict, Response{Message: "conversation already exists"})
	case errors.Is(err, usecase.ErrNotParticipant), errors.Is(err, usecase.ErrNotRequestRecipient):
		writeJSON(w, http.StatusForbidden, Response{Message: "not allowed"})
	case errors.Is(err, usecase.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, Response{Message: "message needs body text or a file"})
	case errors.Is(err, usecase.ErrNotAMentor):
		writeJSON(w, http.StatusBadRequest, Response{Message: "target user is not a mentor"})
	case errors.Is(err, usecase.ErrAlreadyResponded):
		writeJSON(w, http.StatusConflict, Response{Message: "request has already been responded to"})
	default:
		log.Printf("handler error: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
	}
}

// GET /health
func (h *HttpHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{
		Message: "ok",
		Data:    map[string]int{"connectedClients": h.hub.ClientCount()},
	})
}

// GET /user/{id}
func (h *HttpHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userId := chi.URLParam(r, "id")

	user, err := h.userUc.Get(r.Context(), userId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: user})
}

// GET /conversations
func (h *HttpHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	summaries, err := h.conversationUc.ListForUser(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: summaries})
}

// POST /conversations
func (h *HttpHandler) FindOrCreateConversation(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	var req struct {
		MentorId            string `json:"mentorId"`
		StudentId           string `json:"studentId"`
		MentorshipRequestId string `json:"mentorshipRequestId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	if req.MentorId == "" || req.StudentId == "" {
		writeJSON(w, http.StatusBadRequest, Response{Message: "mentorId and studentId are required"})
		return
	}

	// The caller must be one side of the pair they are opening.
	if claims.UserId != req.MentorId && claims.UserId != req.StudentId {
		writeJSON(w, http.StatusForbidden, Response{Message: "not allowed"})
		return
	}

	conversation, err := h.conversationUc.FindOrCreate(r.Context(), req.MentorId, req.StudentId, req.MentorshipRequestId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: conversation})
}

// GET /conversations/{conversationId}/messages
func (h *HttpHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	conversationId := chi.URLParam(r, "conversationId")

	messages, err := h.messageUc.List(r.Context(), conversationId, claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: messages})
}

// POST /conversations/{conversationId}/messages
func (h *HttpHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	conversationId := chi.URLParam(r, "conversationId")

	var req struct {
		Body    string `json:"body"`
		FileUrl string `json:"fileUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	message, err := h.messageUc.Send(r.Context(), conversationId, claims.UserId, req.Body, req.FileUrl)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, Response{Message: "success", Data: message})
}

// POST /conversations/{conversationId}/read
func (h *HttpHandler) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	conversationId := chi.URLParam(r, "conversationId")

	if err := h.messageUc.MarkRead(r.Context(), conversationId, claims.UserId); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success"})
}

// GET /notifications
func (h *HttpHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	notifications, err := h.notificationUc.Index(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: notifications})
}

// GET /notifications/unread-count
func (h *HttpHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	count, err := h.notificationUc.UnreadCount(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: map[string]int64{"count": count}})
}

// POST /notifications/{notificationId}/read
func (h *HttpHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	notificationId := chi.URLParam(r, "notificationId")

	if err := h.notificationUc.MarkRead(r.Context(), notificationId, claims.UserId); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success"})
}

// POST /notifications/read-all
func (h *HttpHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	if err := h.notificationUc.MarkAllRead(r.Context(), claims.UserId); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success"})
}

// POST /mentorship/requests
func (h *HttpHandler) CreateMentorshipRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	var req struct {
		MentorId string `json:"mentorId"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	if req.MentorId == "" {
		writeJSON(w, http.StatusBadRequest, Response{Message: "mentorId is required"})
		return
	}

	request, err := h.mentorshipUc.RequestMentorship(r.Context(), claims.UserId, req.MentorId, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, Response{Message: "success", Data: request})
}

// POST /mentorship/requests/{requestId}/respond
func (h *HttpHandler) RespondMentorshipRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	requestId := chi.URLParam(r, "requestId")

	var req struct {
		Accept bool `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	request, err := h.mentorshipUc.RespondToRequest(r.Context(), requestId, claims.UserId, req.Accept)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: request})
}

// GET /mentorship/requests
func (h *HttpHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	requests, err := h.mentorshipUc.PendingRequests(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: requests})
}

// POST /sessions
func (h *HttpHandler) BookSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	var req struct {
		MentorId    string    `json:"mentorId"`
		Topic       string    `json:"topic"`
		ScheduledAt time.Time `json:"scheduledAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	if req.MentorId == "" || req.ScheduledAt.IsZero() {
		writeJSON(w, http.StatusBadRequest, Response{Message: "mentorId and scheduledAt are required"})
		return
	}

	session, err := h.mentorshipUc.BookSession(r.Context(), claims.UserId, req.MentorId, req.Topic, req.ScheduledAt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, Response{Message: "success", Data: session})
}

// GET /sessions
func (h *HttpHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	sessions, err := h.mentorshipUc.Sessions(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: sessions})
}
