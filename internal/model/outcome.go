// internal/model/outcome.go
package model

// DeliveryOutcome is the gateway's verdict for a single token. Outcomes are
// never persisted individually; they only feed the aggregate counters.
type DeliveryOutcome struct {
	Token     string
	Success   bool
	ErrorCode string
}

// AggregateResult holds the running counters for one notification record.
// Merge is commutative and associative, so folding per-recipient partials in
// any completion order yields the same totals.
type AggregateResult struct {
	TotalSent           int `json:"total_sent"`
	TotalErrors         int `json:"total_errors"`
	RecipientsContacted int `json:"recipients_contacted"`
}

// Merge folds another partial result into this one.
func (a *AggregateResult) Merge(other AggregateResult) {
	a.TotalSent += other.TotalSent
	a.TotalErrors += other.TotalErrors
	a.RecipientsContacted += other.RecipientsContacted
}
