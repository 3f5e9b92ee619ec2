// internal/controller/notification_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/streadway/amqp"

	appErrors "github.com/sokoevents/eventpulse-backend/internal/errors"
	"github.com/sokoevents/eventpulse-backend/internal/model"
	"github.com/sokoevents/eventpulse-backend/internal/queue"
	"github.com/sokoevents/eventpulse-backend/internal/repository"
	"github.com/sokoevents/eventpulse-backend/internal/service"
)

type NotificationController struct {
	Dispatcher *service.Dispatcher
	Repo       repository.NotificationRepositoryInterface
	Queue      queue.Queue
}

// CreateNotification records an inbound trigger as a pending notification.
func (c *NotificationController) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NotificationID  string            `json:"notification_id"`
		ScopeKind       string            `json:"scope_kind"`
		ScopeID         string            `json:"scope_id"`
		ScopeLabel      string            `json:"scope_label"`
		SenderEmail     string            `json:"sender_email"`
		SenderName      string            `json:"sender_display_name"`
		BodyText        string            `json:"body_text"`
		Badge           int               `json:"badge"`
		CorrelationData map[string]string `json:"correlation_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if body.ScopeKind != "channel" && body.ScopeKind != "guest" {
		http.Error(w, "scope_kind must be channel or guest", http.StatusBadRequest)
		return
	}
	if body.ScopeID == "" || body.SenderEmail == "" {
		http.Error(w, "scope_id and sender_email are required", http.StatusBadRequest)
		return
	}

	if body.NotificationID == "" {
		body.NotificationID = uuid.NewString()
	}

	record := &model.NotificationRecord{
		ID:              body.NotificationID,
		ScopeKind:       body.ScopeKind,
		ScopeID:         body.ScopeID,
		ScopeLabel:      body.ScopeLabel,
		SenderEmail:     body.SenderEmail,
		SenderName:      body.SenderName,
		BodyText:        body.BodyText,
		Badge:           body.Badge,
		CorrelationData: body.CorrelationData,
		Status:          model.StatusPending,
	}

	if err := c.Repo.Create(record); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

// DispatchNotification runs the delivery pipeline inline and returns the
// summary. The persisted record is the durable outcome; this response is a
// convenience.
func (c *NotificationController) DispatchNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := c.Repo.GetByID(id)
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	if record.Status.IsTerminal() {
		http.Error(w, "notification already dispatched", http.StatusConflict)
		return
	}

	result, err := c.Dispatcher.Dispatch(r.Context(), service.TriggerFromRecord(record))
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// EnqueueNotification hands the dispatch off to the worker via RabbitMQ,
// or to the in-process queue when no broker is configured.
func (c *NotificationController) EnqueueNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := c.Repo.GetByID(id)
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	if record.Status.IsTerminal() {
		http.Error(w, "notification already dispatched", http.StatusConflict)
		return
	}

	amqpURL := os.Getenv("AMQP_URL")
	if amqpURL == "" {
		if c.Queue == nil {
			http.Error(w, "no queue configured", http.StatusInternalServerError)
			return
		}
		if err := c.Queue.Publish("notification_dispatch", id); err != nil {
			http.Error(w, "failed to enqueue: "+err.Error(), http.StatusInternalServerError)
			return
		}
	} else if err := publishToBroker(amqpURL, id); err != nil {
		log.Println("Failed to publish dispatch job:", err)
		http.Error(w, "failed to enqueue", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"notification_id": id,
		"queued":          true,
	})
}

// GetNotification returns the record plus its delivery counters.
func (c *NotificationController) GetNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := c.Repo.GetByID(id)
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// ListNotifications returns a paginated list of notification records
func (c *NotificationController) ListNotifications(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	notifications, total, err := c.Repo.List(offset, pageSize, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": notifications,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": totalPages,
		},
	})
}

func publishToBroker(amqpURL, notificationID string) error {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		"notification_dispatch",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"notification_id": notificationID})
	if err != nil {
		return err
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// writeDispatchError maps the error taxonomy to HTTP statuses.
func writeDispatchError(w http.ResponseWriter, err error) {
	var notFound *appErrors.ErrNotificationNotFound
	if errors.As(err, &notFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var resolution *appErrors.ResolutionError
	if errors.As(err, &resolution) {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	http.Error(w, err.Error(), http.StatusInternalServerError)
}
