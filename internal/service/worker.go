package service

import (
	"context"
	"sync"

	"github.com/sokoevents/eventpulse-backend/internal/model"
)

// recipientResult is the immutable partial outcome of one recipient task.
// Results are folded by the single aggregation loop in Dispatch, so no
// counter is ever incremented from two goroutines.
type recipientResult struct {
	aggregate model.AggregateResult
	failures  []string
}

// runRecipients fans the recipient set out to a fixed-size pool of workers
// and returns the channel their results arrive on. The channel is closed
// once every recipient task has settled, which is the caller's join barrier
// before the final status write.
func (d *Dispatcher) runRecipients(ctx context.Context, trigger DispatchTrigger, recipients []model.RecipientIdentity) <-chan recipientResult {
	workers := d.concurrency()
	if workers > len(recipients) {
		workers = len(recipients)
	}

	jobs := make(chan model.RecipientIdentity)
	results := make(chan recipientResult, len(recipients))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for recipient := range jobs {
				results <- d.dispatchRecipient(ctx, trigger, recipient)
			}
		}()
	}

	go func() {
		for _, recipient := range recipients {
			jobs <- recipient
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	return results
}
