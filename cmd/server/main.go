package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"mentorhub/infrastructure/cache"
	"mentorhub/infrastructure/db"
	"mentorhub/infrastructure/feed"
	"mentorhub/infrastructure/ws"
	httpHandler "mentorhub/internal/delivery/http"
	"mentorhub/internal/delivery/websocket"
	"mentorhub/internal/repository"
	"mentorhub/internal/usecase"
	"mentorhub/pkg/jwt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		fmt.Println("godotenv: error loading .env file")
	}

	ctx := context.Background()

	mongoDbHost := os.Getenv("MONGODB_URI")
	mongoDbName := os.Getenv("MONGODB_DATABASE")
	mongoDb, err := db.NewMongoStore(ctx, mongoDbHost, mongoDbName)
	if err != nil {
		panic(err)
	}

	log.Println("Connected to MongoDB")

	if err := mongoDb.EnsureIndexes(ctx); err != nil {
		panic(err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(mongoDb.DB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(mongoDb.DB)
	conversationRepo := repository.NewConversationRepository(mongoDb.DB)
	messageRepo := repository.NewMessageRepository(mongoDb.DB)
	notificationRepo := repository.NewNotificationRepository(mongoDb.DB)
	mentorshipRepo := repository.NewMentorshipRepository(mongoDb.DB)

	// Initialize JWT manager
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-this-in-production" // Default for development
		log.Println("Warning: Using default JWT secret. Set JWT_SECRET in .env for production")
	}

	// Access token: 15 minutes, Refresh token: 30 days
	jwtManager := jwt.NewJWTManager(jwtSecret, 15*time.Minute, 30*24*time.Hour)

	// Change feed: Redis for multi-server deployments, in-memory otherwise
	redisAddr := os.Getenv("REDIS_ADDR")

	var changeFeed feed.Feed
	if redisAddr != "" {
		serverID := os.Getenv("SERVER_ID")
		if serverID == "" {
			serverID = "server-1" // Default
		}

		log.Printf("Using Redis change feed at %s with server ID: %s", redisAddr, serverID)
		changeFeed = feed.NewRedisFeed(redisAddr, serverID)
	} else {
		log.Println("Using in-memory change feed (single server)")
		changeFeed = feed.NewMemoryFeed()
	}

	profileCache := cache.NewMemCache(10 * time.Minute)

	// Initialize use cases
	authUc := usecase.NewAuthUsecase(userRepo, refreshTokenRepo, jwtManager)
	userUc := usecase.NewUserUsecase(userRepo)
	notificationUc := usecase.NewNotificationUsecase(notificationRepo, changeFeed)
	conversationUc := usecase.NewConversationUsecase(conversationRepo, userRepo, profileCache)
	messageUc := usecase.NewMessageUsecase(messageRepo, conversationRepo, userRepo, notificationUc, changeFeed)
	mentorshipUc := usecase.NewMentorshipUsecase(mentorshipRepo, userRepo, conversationUc, notificationUc)

	hub := ws.NewHub()
	hub.SetOnClientUnregister(func(client *ws.UserClient) error {
		return userUc.HandleUnregisterClient(ctx, client.UserId)
	})

	go hub.Run()

	log.Println("Websocket is running")

	// CORS middleware
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:3000")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			// Handle preflight requests
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Initialize handlers
	websocketH := websocket.NewWebsocketHandler(hub, authUc, userUc, messageUc, notificationUc)
	httpH := httpHandler.NewHttpHandler(conversationUc, messageUc, notificationUc, mentorshipUc, userUc, hub)
	authH := httpHandler.NewAuthHandler(authUc)
	authMiddleware := httpHandler.NewAuthMiddleware(authUc)

	// Map routes
	httpHandler.MapHttpRoutes(router, httpH, websocketH, authH, authMiddleware)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("HTTP server is running on :%s", port)

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}
