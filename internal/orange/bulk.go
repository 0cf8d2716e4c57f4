package orange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BulkResult aggregates the per-recipient outcomes of a bulk send. Results
// holds exactly one entry per supplied recipient, in input order.
type BulkResult struct {
	SuccessCount int
	FailedCount  int
	Results      []SendResult
}

const defaultBatchSize = 10

// SendBulk sends body to every recipient in rate-limited batches. Inside a
// batch sends run concurrently with a staggered start; between batches a
// pause smooths load on the carrier. One recipient's failure never aborts
// the rest. The token is acquired up front so an authentication problem
// fails the whole attempt before any message goes out.
func (c *Client) SendBulk(ctx context.Context, recipients []string, body string) (*BulkResult, error) {
	if len(recipients) == 0 {
		return &BulkResult{}, nil
	}

	if _, err := c.accessToken(ctx); err != nil {
		return nil, fmt.Errorf("bulk send aborted: %w", err)
	}

	batchSize := c.dispatch.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	stagger := time.Duration(c.dispatch.StaggerDelayMs) * time.Millisecond
	pause := time.Duration(c.dispatch.BatchPauseMs) * time.Millisecond

	results := make([]SendResult, len(recipients))

	for start := 0; start < len(recipients); start += batchSize {
		end := start + batchSize
		if end > len(recipients) {
			end = len(recipients)
		}

		c.logger.Debug("Sending batch",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int("total", len(recipients)))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx, offset int) {
				defer wg.Done()

				if stagger > 0 && offset > 0 {
					time.Sleep(time.Duration(offset) * stagger)
				}

				res, err := c.SendOne(ctx, recipients[idx], body)
				if err != nil {
					res = SendResult{
						Recipient: recipients[idx],
						Code:      CodeAuthFailed,
						Error:     err.Error(),
					}
				}
				results[idx] = res
			}(i, i-start)
		}
		wg.Wait()

		if end < len(recipients) && pause > 0 {
			time.Sleep(pause)
		}
	}

	bulk := &BulkResult{Results: results}
	for _, r := range results {
		if r.Success {
			bulk.SuccessCount++
		} else {
			bulk.FailedCount++
		}
	}

	c.logger.Info("Bulk send completed",
		zap.Int("recipients", len(recipients)),
		zap.Int("success", bulk.SuccessCount),
		zap.Int("failed", bulk.FailedCount))

	return bulk, nil
}
