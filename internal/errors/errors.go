// internal/errors/errors.go
package appErrors

import "fmt"

// ErrNotificationNotFound is a sentinel error
type ErrNotificationNotFound struct {
	NotificationID string
}

func (e *ErrNotificationNotFound) Error() string {
	return fmt.Sprintf("notification with ID %s not found", e.NotificationID)
}

// Helper constructor
func NewNotificationNotFound(id string) error {
	return &ErrNotificationNotFound{NotificationID: id}
}

// ResolutionError means the recipient population could not be determined.
// It is the only error class that aborts a dispatch outright.
type ResolutionError struct {
	ScopeKind string
	ScopeID   string
	Err       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve recipients for %s %s: %v", e.ScopeKind, e.ScopeID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func NewResolution(scopeKind, scopeID string, err error) error {
	return &ResolutionError{ScopeKind: scopeKind, ScopeID: scopeID, Err: err}
}

// TokenLookupError means one recipient's token fetch failed. It is absorbed
// as a single error against that recipient; the batch continues.
type TokenLookupError struct {
	Email string
	Err   error
}

func (e *TokenLookupError) Error() string {
	return fmt.Sprintf("token lookup failed for %s: %v", e.Email, e.Err)
}

func (e *TokenLookupError) Unwrap() error { return e.Err }

func NewTokenLookup(email string, err error) error {
	return &TokenLookupError{Email: email, Err: err}
}

// GatewayTransportError means a whole gateway call failed (non-2xx, network
// fault or timeout). No receipts came back, so it counts as one error for
// the recipient, not one per token.
type GatewayTransportError struct {
	StatusCode int
	Err        error
}

func (e *GatewayTransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("push gateway returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("push gateway call failed: %v", e.Err)
}

func (e *GatewayTransportError) Unwrap() error { return e.Err }

func NewGatewayTransport(statusCode int, err error) error {
	return &GatewayTransportError{StatusCode: statusCode, Err: err}
}

// PersistenceError means the final status write failed. Already-dispatched
// pushes cannot be unsent, so there is no compensating action.
type PersistenceError struct {
	NotificationID string
	Err            error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist status for notification %s: %v", e.NotificationID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistence(id string, err error) error {
	return &PersistenceError{NotificationID: id, Err: err}
}
