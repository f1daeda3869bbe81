package http

import (
	"net/http"

	wsDelivery "mentorhub/internal/delivery/websocket"

	"github.com/go-chi/chi/v5"
)

func MapHttpRoutes(r *chi.Mux, httpHandler *HttpHandler, websocketHandler *wsDelivery.WebsocketHandler, authHandler *AuthHandler, authMiddleware *AuthMiddleware) {
	r.Get("/health", http.HandlerFunc(httpHandler.Health))
	r.Handle("/ws", http.HandlerFunc(websocketHandler.HandleWebSocket))

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", http.HandlerFunc(authHandler.Register))
		r.Post("/login", http.HandlerFunc(authHandler.Login))
		r.Post("/refresh", http.HandlerFunc(authHandler.RefreshToken))
		r.Post("/logout", http.HandlerFunc(authHandler.Logout))

		// Protected auth routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/logout-all", http.HandlerFunc(authHandler.LogoutAllDevices))
		})
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", http.HandlerFunc(httpHandler.ListConversations))
			r.Post("/", http.HandlerFunc(httpHandler.FindOrCreateConversation))
			r.Get("/{conversationId}/messages", http.HandlerFunc(httpHandler.GetMessages))
			r.Post("/{conversationId}/messages", http.HandlerFunc(httpHandler.SendMessage))
			r.Post("/{conversationId}/read", http.HandlerFunc(httpHandler.MarkConversationRead))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", http.HandlerFunc(httpHandler.ListNotifications))
			r.Get("/unread-count", http.HandlerFunc(httpHandler.UnreadCount))
			r.Post("/{notificationId}/read", http.HandlerFunc(httpHandler.MarkNotificationRead))
			r.Post("/read-all", http.HandlerFunc(httpHandler.MarkAllNotificationsRead))
		})

		r.Route("/mentorship/requests", func(r chi.Router) {
			r.Get("/", http.HandlerFunc(httpHandler.ListPendingRequests))
			r.Post("/", http.HandlerFunc(httpHandler.CreateMentorshipRequest))
			r.Post("/{requestId}/respond", http.HandlerFunc(httpHandler.RespondMentorshipRequest))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", http.HandlerFunc(httpHandler.ListSessions))
			r.Post("/", http.HandlerFunc(httpHandler.BookSession))
		})

		r.Route("/user", func(r chi.Router) {
			r.Get("/{id}", http.HandlerFunc(httpHandler.GetUser))
		})
	})
}
