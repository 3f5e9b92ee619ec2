// Package gateway wraps the external push gateway HTTP API. It is the only
// place that knows the wire format, and it separates the two failure classes
// the accounting depends on: a transport failure (non-2xx, network fault)
// means no receipts exist for the whole call, while a receipt failure is the
// gateway rejecting a single token inside an otherwise successful call.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appErrors "github.com/sokoevents/eventpulse-backend/internal/errors"
)

const (
	// ReceiptOK is the per-token status the gateway returns on acceptance.
	ReceiptOK = "ok"

	defaultTimeout = 15 * time.Second
)

// PushRequest is one gateway call carrying all of a recipient's tokens.
type PushRequest struct {
	To       []string          `json:"to"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound"`
	Badge    int               `json:"badge"`
	Priority string            `json:"priority"`
}

// Receipt is the gateway's per-token acknowledgment, aligned positionally
// with the request's token list.
type Receipt struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type PushResponse struct {
	Data []Receipt `json:"data"`
}

// Client is the transport seam the dispatcher depends on, so tests can swap
// the real gateway for a fake.
type Client interface {
	Send(ctx context.Context, req PushRequest) (*PushResponse, error)
}

// HTTPClient talks to the real push gateway.
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Send posts one token batch. Any failure before receipts are decoded is a
// GatewayTransportError; per-token rejections come back as receipts and are
// the caller's to count.
func (c *HTTPClient) Send(ctx context.Context, req PushRequest) (*PushResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, appErrors.NewGatewayTransport(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, appErrors.NewGatewayTransport(resp.StatusCode, nil)
	}

	var pushResp PushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pushResp); err != nil {
		return nil, appErrors.NewGatewayTransport(0, fmt.Errorf("invalid gateway response: %w", err))
	}

	return &pushResp, nil
}

var _ Client = (*HTTPClient)(nil)
