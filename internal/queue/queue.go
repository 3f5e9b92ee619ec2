package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sokoevents/eventpulse-backend/internal/repository"
	"github.com/sokoevents/eventpulse-backend/internal/service"
)

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process queue for single-binary deployments where
// no broker is available.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("Job failed (attempt %d/%d): %+v, error: %v\n", job.RetryCount, job.MaxRetries, job.Payload, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("Job permanently failed after %d attempts: %+v\n", job.MaxRetries, job.Payload)
			return // No requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// StartDispatchSubscriber wires the dispatcher to queued notification ids.
// Dispatch errors are logged but never returned, because a queue-level
// retry would re-push notifications that may already have gone out.
func StartDispatchSubscriber(q Queue, dispatcher *service.Dispatcher, repo repository.NotificationRepositoryInterface) {
	go func() {
		err := q.Subscribe("notification_dispatch", func(payload any) error {
			notificationID, ok := payload.(string)
			if !ok {
				log.Println("⚠️ Invalid payload type, expected string notification id")
				return nil
			}

			log.Println("📩 Processing queued notification:", notificationID)

			record, err := repo.GetByID(notificationID)
			if err != nil {
				log.Println("⚠️ Failed to fetch notification:", err)
				return nil
			}

			result, err := dispatcher.Dispatch(context.Background(), service.TriggerFromRecord(record))
			if err != nil {
				log.Println("⚠️ Dispatch failed for notification", notificationID, ":", err)
				return nil // pushes cannot be unsent, do not redeliver
			}

			log.Printf("✅ Notification %s processed: status=%s sent=%d errors=%d\n",
				notificationID, result.Status, result.Sent, result.Errors)
			return nil
		})

		if err != nil {
			log.Println("⚠️ Failed to start subscriber for notification_dispatch:", err)
		}
	}()
}
