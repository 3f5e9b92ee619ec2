// internal/model/notification.go
package model

import "time"

// Status is the delivery status of a notification record.
type Status string

const (
	StatusPending        Status = "pending"
	StatusDispatching    Status = "dispatching"
	StatusSent           Status = "sent"
	StatusPartialFailure Status = "partial_failure"
	StatusFailed         Status = "failed"
	StatusNoRecipients   Status = "no_recipients"
)

// IsTerminal reports whether the status can no longer change.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSent, StatusPartialFailure, StatusFailed, StatusNoRecipients:
		return true
	}
	return false
}

type NotificationRecord struct {
	ID              string            `db:"id" json:"id"`
	ScopeKind       string            `db:"scope_kind" json:"scope_kind"` // channel, guest
	ScopeID         string            `db:"scope_id" json:"scope_id"`
	ScopeLabel      string            `db:"scope_label" json:"scope_label,omitempty"`
	SenderEmail     string            `db:"sender_email" json:"sender_email"`
	SenderName      string            `db:"sender_name" json:"sender_name"`
	BodyText        string            `db:"body_text" json:"body_text"`
	Badge           int               `db:"badge" json:"badge"`
	CorrelationData map[string]string `db:"correlation_data" json:"correlation_data,omitempty"`
	Status          Status            `db:"status" json:"status"`
	SentAt          *time.Time        `db:"sent_at" json:"sent_at,omitempty"`
	ErrorSummary    string            `db:"error_summary" json:"error_summary,omitempty"`
	SentCount       int               `db:"sent_count" json:"sent_count"`
	ErrorCount      int               `db:"error_count" json:"error_count"`
	RecipientCount  int               `db:"recipient_count" json:"recipient_count"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time        `db:"updated_at" json:"updated_at,omitempty"`
}
