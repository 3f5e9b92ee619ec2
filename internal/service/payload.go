// internal/service/payload.go
package service

import (
	"unicode/utf8"

	"github.com/sokoevents/eventpulse-backend/internal/gateway"
)

const (
	maxBodyLength = 100

	defaultChannelLabel = "New message"
	defaultGuestLabel   = "Itinerary update"
)

// DispatchTrigger is the inbound event that starts a dispatch. It carries
// the payload seed of the originating notification record.
type DispatchTrigger struct {
	NotificationID  string            `json:"notification_id"`
	ScopeKind       string            `json:"scope_kind"` // channel, guest
	ScopeID         string            `json:"scope_id"`
	ScopeLabel      string            `json:"scope_label"`
	SenderEmail     string            `json:"sender_email"`
	SenderName      string            `json:"sender_display_name"`
	BodyText        string            `json:"body_text"`
	Badge           int               `json:"badge"`
	CorrelationData map[string]string `json:"correlation_data"`
}

// BuildPayload constructs the gateway request for one recipient's token
// batch. It is a pure function: the same trigger and tokens always produce
// the same request, so retried deliveries look identical to the client.
func BuildPayload(trigger DispatchTrigger, tokens []string) gateway.PushRequest {
	label := trigger.ScopeLabel
	if label == "" {
		if trigger.ScopeKind == "guest" {
			label = defaultGuestLabel
		} else {
			label = defaultChannelLabel
		}
	}

	badge := trigger.Badge
	if badge <= 0 {
		badge = 1
	}

	data := map[string]string{}
	for k, v := range trigger.CorrelationData {
		data[k] = v
	}
	data["notificationId"] = trigger.NotificationID
	data["scopeId"] = trigger.ScopeID
	data["senderEmail"] = trigger.SenderEmail

	return gateway.PushRequest{
		To:       tokens,
		Title:    label + " - " + trigger.SenderName,
		Body:     truncateBody(trigger.BodyText),
		Data:     data,
		Sound:    "default",
		Badge:    badge,
		Priority: "high",
	}
}

// truncateBody caps the body at 100 characters plus a literal "...". It
// counts runes, not bytes, so a multi-byte character is never split.
func truncateBody(body string) string {
	if utf8.RuneCountInString(body) <= maxBodyLength {
		return body
	}
	return string([]rune(body)[:maxBodyLength]) + "..."
}
