package main

import (
	"context"
	"sync"
	"testing"
	"time"

	appErrors "github.com/sokoevents/eventpulse-backend/internal/errors"
	"github.com/sokoevents/eventpulse-backend/internal/gateway"
	"github.com/sokoevents/eventpulse-backend/internal/model"
	"github.com/sokoevents/eventpulse-backend/internal/service"
)

// MockNotificationRepo stores records in memory
type MockNotificationRepo struct {
	mu      sync.Mutex
	records map[string]*model.NotificationRecord
}

func (m *MockNotificationRepo) Create(n *model.NotificationRecord) error { return nil }

func (m *MockNotificationRepo) GetByID(id string) (*model.NotificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.records[id]
	if !ok {
		return nil, appErrors.NewNotificationNotFound(id)
	}
	return n, nil
}

func (m *MockNotificationRepo) List(offset, limit int, status string) ([]*model.NotificationRecord, int, error) {
	return nil, 0, nil
}

func (m *MockNotificationRepo) MarkDispatching(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id].Status = model.StatusDispatching
	return nil
}

func (m *MockNotificationRepo) Finalize(id string, status model.Status, sentAt *time.Time, errorSummary string, agg model.AggregateResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.records[id]
	n.Status = status
	n.SentAt = sentAt
	n.ErrorSummary = errorSummary
	n.SentCount = agg.TotalSent
	n.ErrorCount = agg.TotalErrors
	return nil
}

type MockParticipantRepo struct{}

func (m *MockParticipantRepo) ListByChannel(channelID string) ([]model.RecipientIdentity, error) {
	return []model.RecipientIdentity{
		{Kind: model.IdentityUser, Email: "brian@example.com", DisplayName: "Brian"},
	}, nil
}

func (m *MockParticipantRepo) GetGuest(guestID string) (*model.RecipientIdentity, error) {
	return nil, nil
}

type MockTokenRepo struct{}

func (m *MockTokenRepo) ListByEmail(email string) ([]model.DeliveryToken, error) {
	return []model.DeliveryToken{{OwnerEmail: email, Token: "tok-1"}}, nil
}

type MockGateway struct{}

func (m *MockGateway) Send(ctx context.Context, req gateway.PushRequest) (*gateway.PushResponse, error) {
	receipts := make([]gateway.Receipt, len(req.To))
	for i := range receipts {
		receipts[i] = gateway.Receipt{Status: gateway.ReceiptOK}
	}
	return &gateway.PushResponse{Data: receipts}, nil
}

func TestProcessDispatch(t *testing.T) {
	repo := &MockNotificationRepo{
		records: map[string]*model.NotificationRecord{
			"notif-1": {
				ID:          "notif-1",
				ScopeKind:   "channel",
				ScopeID:     "chan-1",
				SenderEmail: "amina@example.com",
				SenderName:  "Amina",
				BodyText:    "hello",
				Status:      model.StatusPending,
			},
		},
	}

	dispatcher := &service.Dispatcher{
		ParticipantRepo:  &MockParticipantRepo{},
		TokenRepo:        &MockTokenRepo{},
		NotificationRepo: repo,
		Gateway:          &MockGateway{},
	}

	if err := processDispatch("notif-1", dispatcher, repo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record, _ := repo.GetByID("notif-1")
	if record.Status != model.StatusSent {
		t.Errorf("expected sent, got %s", record.Status)
	}
	if record.SentCount != 1 {
		t.Errorf("expected 1 sent, got %d", record.SentCount)
	}
}

func TestProcessDispatchUnknownNotification(t *testing.T) {
	repo := &MockNotificationRepo{records: map[string]*model.NotificationRecord{}}

	dispatcher := &service.Dispatcher{
		ParticipantRepo:  &MockParticipantRepo{},
		TokenRepo:        &MockTokenRepo{},
		NotificationRepo: repo,
		Gateway:          &MockGateway{},
	}

	if err := processDispatch("missing", dispatcher, repo); err == nil {
		t.Errorf("expected an error for an unknown notification")
	}
}
