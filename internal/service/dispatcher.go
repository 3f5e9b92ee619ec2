// internal/service/dispatcher.go
package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	appErrors "github.com/sokoevents/eventpulse-backend/internal/errors"
	"github.com/sokoevents/eventpulse-backend/internal/gateway"
	"github.com/sokoevents/eventpulse-backend/internal/model"
	"github.com/sokoevents/eventpulse-backend/internal/repository"
)

const (
	// DefaultConcurrency bounds how many recipients are dispatched at once.
	// Unbounded fan-out would hammer the gateway on large channels.
	DefaultConcurrency = 5

	// DefaultRecipientTimeout bounds how long one gateway call may block
	// its worker before the recipient is written off as a transport error.
	DefaultRecipientTimeout = 10 * time.Second
)

// Dispatcher runs the delivery pipeline: resolve recipients, look up their
// tokens, push one batch per recipient through the gateway, fold the
// outcomes and persist the final status exactly once.
type Dispatcher struct {
	ParticipantRepo  repository.ParticipantRepositoryInterface
	TokenRepo        repository.TokenRepositoryInterface
	NotificationRepo repository.NotificationRepositoryInterface
	Gateway          gateway.Client

	// Zero values fall back to the defaults above.
	Concurrency      int
	RecipientTimeout time.Duration
}

// DispatchResult is the inline summary returned to the caller. The durable
// outcome lives on the notification record.
type DispatchResult struct {
	Success    bool         `json:"success"`
	Status     model.Status `json:"status"`
	Sent       int          `json:"sent"`
	Errors     int          `json:"errors"`
	Recipients int          `json:"recipients"`
}

// TriggerFromRecord rebuilds the dispatch trigger from a stored record, for
// the queue consumers that only carry the notification id.
func TriggerFromRecord(n *model.NotificationRecord) DispatchTrigger {
	return DispatchTrigger{
		NotificationID:  n.ID,
		ScopeKind:       n.ScopeKind,
		ScopeID:         n.ScopeID,
		ScopeLabel:      n.ScopeLabel,
		SenderEmail:     n.SenderEmail,
		SenderName:      n.SenderName,
		BodyText:        n.BodyText,
		Badge:           n.Badge,
		CorrelationData: n.CorrelationData,
	}
}

// Dispatch runs the whole pipeline for one trigger. Only a recipient
// resolution failure aborts it; everything downstream is absorbed into the
// aggregate counters and the persisted status.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger DispatchTrigger) (*DispatchResult, error) {
	recipients, err := d.resolveRecipients(trigger)
	if err != nil {
		return nil, appErrors.NewResolution(trigger.ScopeKind, trigger.ScopeID, err)
	}

	// Nothing has been pushed yet, so failing here leaves the record
	// untouched in pending.
	if err := d.NotificationRepo.MarkDispatching(trigger.NotificationID); err != nil {
		return nil, appErrors.NewPersistence(trigger.NotificationID, err)
	}

	if len(recipients) == 0 {
		log.Println("📭 No recipients for notification", trigger.NotificationID)
		return d.finalize(trigger.NotificationID, model.StatusNoRecipients, model.AggregateResult{}, nil)
	}

	agg := model.AggregateResult{}
	failures := []string{}
	for res := range d.runRecipients(ctx, trigger, recipients) {
		agg.Merge(res.aggregate)
		failures = append(failures, res.failures...)
	}

	status := DeriveStatus(len(recipients), agg)
	log.Printf("📨 Notification %s dispatched: status=%s sent=%d errors=%d recipients=%d\n",
		trigger.NotificationID, status, agg.TotalSent, agg.TotalErrors, agg.RecipientsContacted)

	return d.finalize(trigger.NotificationID, status, agg, failures)
}

// resolveRecipients maps the trigger scope to a deduplicated recipient set
// with the sender removed. Dedup and exclusion both go through the
// identity's email key, so case or user-vs-guest variants never sneak the
// sender back in.
func (d *Dispatcher) resolveRecipients(trigger DispatchTrigger) ([]model.RecipientIdentity, error) {
	var population []model.RecipientIdentity

	switch trigger.ScopeKind {
	case "channel":
		participants, err := d.ParticipantRepo.ListByChannel(trigger.ScopeID)
		if err != nil {
			return nil, err
		}
		population = participants
	case "guest":
		guest, err := d.ParticipantRepo.GetGuest(trigger.ScopeID)
		if err != nil {
			return nil, err
		}
		if guest != nil {
			population = append(population, *guest)
		}
	default:
		return nil, fmt.Errorf("unknown scope kind: %q", trigger.ScopeKind)
	}

	sender := model.RecipientIdentity{Email: trigger.SenderEmail}
	seen := map[string]bool{}
	recipients := []model.RecipientIdentity{}
	for _, p := range population {
		if p.SameAs(sender) {
			continue
		}
		if seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true
		recipients = append(recipients, p)
	}
	return recipients, nil
}

// dispatchRecipient runs one recipient task: token lookup, one gateway call
// for the whole token batch, receipt fold. Every failure mode is absorbed
// into the returned partial result; a recipient can never abort the batch.
func (d *Dispatcher) dispatchRecipient(ctx context.Context, trigger DispatchTrigger, recipient model.RecipientIdentity) recipientResult {
	tokens, err := d.TokenRepo.ListByEmail(recipient.Key())
	if err != nil {
		lookupErr := appErrors.NewTokenLookup(recipient.Email, err)
		log.Println("⚠️", lookupErr)
		return recipientResult{
			aggregate: model.AggregateResult{TotalErrors: 1},
			failures:  []string{lookupErr.Error()},
		}
	}

	// No registered devices is not a failure, the recipient is just skipped.
	if len(tokens) == 0 {
		return recipientResult{}
	}

	tokenStrings := make([]string, len(tokens))
	for i, t := range tokens {
		tokenStrings[i] = t.Token
	}

	req := BuildPayload(trigger, tokenStrings)

	callCtx, cancel := context.WithTimeout(ctx, d.recipientTimeout())
	defer cancel()

	resp, err := d.Gateway.Send(callCtx, req)
	if err != nil {
		// No receipts came back, so this is one error for the whole
		// recipient regardless of how many tokens were in the batch.
		log.Printf("⚠️ Gateway call failed for %s: %v\n", recipient.Email, err)
		return recipientResult{
			aggregate: model.AggregateResult{TotalErrors: 1, RecipientsContacted: 1},
			failures:  []string{fmt.Sprintf("gateway call failed for %s: %v", recipient.Email, err)},
		}
	}

	if len(resp.Data) != len(tokenStrings) {
		log.Printf("⚠️ Gateway receipt count mismatch for %s: sent %d tokens, got %d receipts\n",
			recipient.Email, len(tokenStrings), len(resp.Data))
		return recipientResult{
			aggregate: model.AggregateResult{TotalErrors: 1, RecipientsContacted: 1},
			failures:  []string{fmt.Sprintf("gateway receipt mismatch for %s", recipient.Email)},
		}
	}

	result := recipientResult{aggregate: model.AggregateResult{RecipientsContacted: 1}}
	for i, receipt := range resp.Data {
		outcome := model.DeliveryOutcome{Token: tokenStrings[i], Success: receipt.Status == gateway.ReceiptOK}
		if outcome.Success {
			result.aggregate.TotalSent++
			continue
		}
		outcome.ErrorCode = receipt.Message
		result.aggregate.TotalErrors++
		result.failures = append(result.failures,
			fmt.Sprintf("token rejected for %s: %s", recipient.Email, receipt.Message))
	}
	return result
}

// DeriveStatus applies the status table to the settled counters.
func DeriveStatus(recipientCount int, agg model.AggregateResult) model.Status {
	switch {
	case recipientCount == 0:
		return model.StatusNoRecipients
	case agg.TotalErrors == 0 && agg.TotalSent > 0:
		return model.StatusSent
	case agg.TotalErrors > 0 && agg.TotalSent > 0:
		return model.StatusPartialFailure
	case agg.TotalErrors > 0:
		return model.StatusFailed
	default:
		// Recipients existed but none had a registered device.
		return model.StatusNoRecipients
	}
}

// finalize commits the terminal status exactly once. Pushes already out the
// door cannot be unsent, so a failed write surfaces as a PersistenceError
// with no compensating action.
func (d *Dispatcher) finalize(notificationID string, status model.Status, agg model.AggregateResult, failures []string) (*DispatchResult, error) {
	var sentAt *time.Time
	if status == model.StatusSent || status == model.StatusPartialFailure {
		now := time.Now()
		sentAt = &now
	}

	errorSummary := ""
	if status == model.StatusPartialFailure || status == model.StatusFailed {
		// Sorted so the persisted summary does not depend on which
		// recipient task finished first.
		sort.Strings(failures)
		errorSummary = strings.Join(failures, "; ")
	}

	if err := d.NotificationRepo.Finalize(notificationID, status, sentAt, errorSummary, agg); err != nil {
		return nil, appErrors.NewPersistence(notificationID, err)
	}

	return &DispatchResult{
		Success:    status != model.StatusFailed,
		Status:     status,
		Sent:       agg.TotalSent,
		Errors:     agg.TotalErrors,
		Recipients: agg.RecipientsContacted,
	}, nil
}

func (d *Dispatcher) concurrency() int {
	if d.Concurrency > 0 {
		return d.Concurrency
	}
	return DefaultConcurrency
}

func (d *Dispatcher) recipientTimeout() time.Duration {
	if d.RecipientTimeout > 0 {
		return d.RecipientTimeout
	}
	return DefaultRecipientTimeout
}
