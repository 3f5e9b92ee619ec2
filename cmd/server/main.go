// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/sokoevents/eventpulse-backend/internal/controller"
	"github.com/sokoevents/eventpulse-backend/internal/db"
	"github.com/sokoevents/eventpulse-backend/internal/gateway"
	"github.com/sokoevents/eventpulse-backend/internal/queue"
	"github.com/sokoevents/eventpulse-backend/internal/repository"
	"github.com/sokoevents/eventpulse-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	gatewayURL := os.Getenv("PUSH_GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = "https://exp.host/--/api/v2/push/send"
	}

	participantRepo := &repository.ParticipantRepository{DB: db.DB}
	tokenRepo := &repository.TokenRepository{DB: db.DB}
	notificationRepo := &repository.NotificationRepository{DB: db.DB}

	dispatcher := &service.Dispatcher{
		ParticipantRepo:  participantRepo,
		TokenRepo:        tokenRepo,
		NotificationRepo: notificationRepo,
		Gateway:          gateway.NewHTTPClient(gatewayURL),
	}

	q := queue.NewInMemoryQueue()
	queue.StartDispatchSubscriber(q, dispatcher, notificationRepo)

	notificationController := &controller.NotificationController{
		Dispatcher: dispatcher,
		Repo:       notificationRepo,
		Queue:      q,
	}

	r := chi.NewRouter()

	// Notification routes
	r.Post("/notifications", notificationController.CreateNotification)
	r.Get("/notifications", notificationController.ListNotifications)
	r.Get("/notifications/{id}", notificationController.GetNotification)
	r.Post("/notifications/{id}/dispatch", notificationController.DispatchNotification)
	r.Post("/notifications/{id}/enqueue", notificationController.EnqueueNotification)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("🚀 Server running on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
