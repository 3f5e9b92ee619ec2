package service_test

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sokoevents/eventpulse-backend/internal/service"
)

func baseTrigger() service.DispatchTrigger {
	return service.DispatchTrigger{
		NotificationID: "notif-1",
		ScopeKind:      "channel",
		ScopeID:        "chan-42",
		ScopeLabel:     "Wedding Planning",
		SenderEmail:    "amina@example.com",
		SenderName:     "Amina",
		BodyText:       "See you at the venue",
		CorrelationData: map[string]string{
			"messageId": "msg-99",
		},
	}
}

func TestBuildPayloadTitleAndDefaults(t *testing.T) {
	req := service.BuildPayload(baseTrigger(), []string{"tok-1", "tok-2"})

	if req.Title != "Wedding Planning - Amina" {
		t.Errorf("unexpected title: %q", req.Title)
	}
	if req.Body != "See you at the venue" {
		t.Errorf("short body should pass through unchanged, got %q", req.Body)
	}
	if req.Priority != "high" {
		t.Errorf("expected high priority, got %q", req.Priority)
	}
	if req.Sound != "default" {
		t.Errorf("expected default sound, got %q", req.Sound)
	}
	if req.Badge != 1 {
		t.Errorf("expected badge default 1, got %d", req.Badge)
	}
	if len(req.To) != 2 || req.To[0] != "tok-1" || req.To[1] != "tok-2" {
		t.Errorf("unexpected token list: %v", req.To)
	}
}

func TestBuildPayloadBadgeOverride(t *testing.T) {
	trigger := baseTrigger()
	trigger.Badge = 7

	req := service.BuildPayload(trigger, []string{"tok-1"})
	if req.Badge != 7 {
		t.Errorf("expected badge 7, got %d", req.Badge)
	}
}

func TestBuildPayloadTruncation(t *testing.T) {
	trigger := baseTrigger()
	trigger.BodyText = strings.Repeat("a", 150)

	req := service.BuildPayload(trigger, []string{"tok-1"})
	if len(req.Body) != 103 {
		t.Fatalf("expected 103 characters, got %d", len(req.Body))
	}
	if req.Body != strings.Repeat("a", 100)+"..." {
		t.Errorf("expected first 100 characters plus ellipsis")
	}

	trigger.BodyText = strings.Repeat("b", 80)
	req = service.BuildPayload(trigger, []string{"tok-1"})
	if req.Body != trigger.BodyText {
		t.Errorf("80-character body should be unchanged")
	}

	// Boundary: exactly 100 passes through.
	trigger.BodyText = strings.Repeat("c", 100)
	req = service.BuildPayload(trigger, []string{"tok-1"})
	if len(req.Body) != 100 {
		t.Errorf("expected exactly 100 characters, got %d", len(req.Body))
	}
}

func TestBuildPayloadTruncationMultibyte(t *testing.T) {
	trigger := baseTrigger()
	trigger.BodyText = strings.Repeat("é", 150)

	req := service.BuildPayload(trigger, []string{"tok-1"})
	if !utf8.ValidString(req.Body) {
		t.Fatalf("truncation must never split a multi-byte character")
	}
	if req.Body != strings.Repeat("é", 100)+"..." {
		t.Errorf("expected first 100 characters plus ellipsis, got %d runes",
			utf8.RuneCountInString(req.Body))
	}

	// 150 bytes but only 75 characters: no truncation.
	trigger.BodyText = strings.Repeat("é", 75)
	req = service.BuildPayload(trigger, []string{"tok-1"})
	if req.Body != trigger.BodyText {
		t.Errorf("75-character body should be unchanged")
	}
}

func TestBuildPayloadCorrelationData(t *testing.T) {
	req := service.BuildPayload(baseTrigger(), []string{"tok-1"})

	expected := map[string]string{
		"messageId":      "msg-99",
		"notificationId": "notif-1",
		"scopeId":        "chan-42",
		"senderEmail":    "amina@example.com",
	}
	if !reflect.DeepEqual(req.Data, expected) {
		t.Errorf("unexpected data field: %v", req.Data)
	}
}

func TestBuildPayloadLabelFallbacks(t *testing.T) {
	trigger := baseTrigger()
	trigger.ScopeLabel = ""

	req := service.BuildPayload(trigger, []string{"tok-1"})
	if req.Title != "New message - Amina" {
		t.Errorf("unexpected channel fallback title: %q", req.Title)
	}

	trigger.ScopeKind = "guest"
	req = service.BuildPayload(trigger, []string{"tok-1"})
	if req.Title != "Itinerary update - Amina" {
		t.Errorf("unexpected guest fallback title: %q", req.Title)
	}
}

func TestBuildPayloadDeterministic(t *testing.T) {
	trigger := baseTrigger()
	first := service.BuildPayload(trigger, []string{"tok-1", "tok-2"})
	second := service.BuildPayload(trigger, []string{"tok-1", "tok-2"})

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs must produce identical payloads")
	}
}
