package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appErrors "github.com/sokoevents/eventpulse-backend/internal/errors"
	"github.com/sokoevents/eventpulse-backend/internal/gateway"
)

func testRequest() gateway.PushRequest {
	return gateway.PushRequest{
		To:       []string{"tok-1", "tok-2"},
		Title:    "Team Chat - Amina",
		Body:     "hello",
		Data:     map[string]string{"notificationId": "notif-1"},
		Sound:    "default",
		Badge:    1,
		Priority: "high",
	}
}

func TestSendParsesReceipts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gateway.PushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Priority != "high" || req.Sound != "default" {
			t.Errorf("unexpected request fields: %+v", req)
		}
		if len(req.To) != 2 {
			t.Errorf("expected 2 tokens, got %d", len(req.To))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gateway.PushResponse{Data: []gateway.Receipt{
			{Status: "ok"},
			{Status: "error", Message: "DeviceNotRegistered"},
		}})
	}))
	defer server.Close()

	client := gateway.NewHTTPClient(server.URL)
	resp, err := client.Send(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 receipts, got %d", len(resp.Data))
	}
	if resp.Data[0].Status != gateway.ReceiptOK {
		t.Errorf("first receipt should be ok")
	}
	if resp.Data[1].Message != "DeviceNotRegistered" {
		t.Errorf("unexpected receipt message: %q", resp.Data[1].Message)
	}
}

func TestSendNon2xxIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := gateway.NewHTTPClient(server.URL)
	_, err := client.Send(context.Background(), testRequest())

	var transportErr *appErrors.GatewayTransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected GatewayTransportError, got %v", err)
	}
	if transportErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", transportErr.StatusCode)
	}
}

func TestSendTimeoutIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := gateway.NewHTTPClient(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Send(ctx, testRequest())

	var transportErr *appErrors.GatewayTransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected GatewayTransportError on timeout, got %v", err)
	}
}

func TestSendMalformedBodyIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := gateway.NewHTTPClient(server.URL)
	_, err := client.Send(context.Background(), testRequest())

	var transportErr *appErrors.GatewayTransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected GatewayTransportError on bad body, got %v", err)
	}
}
