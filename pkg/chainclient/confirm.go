package chainclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/speedrun-hq/liberator/pkg/metrics"
)

var commitmentRank = map[string]int{
	"processed": 0,
	"confirmed": 1,
	"finalized": 2,
}

// reached reports whether status is at or beyond the target commitment
func reached(status string, target string) bool {
	have, ok := commitmentRank[status]
	if !ok {
		return false
	}
	want, ok := commitmentRank[target]
	if !ok {
		want = commitmentRank[CommitmentConfirmed]
	}
	return have >= want
}

// Confirm polls the signature until it reaches commitment, fails on-chain, or times out
func (c *Client) Confirm(ctx context.Context, sig solana.Signature, commitment string) error {
	start := time.Now()
	pollCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.GetSignatureStatus(pollCtx, sig)
		switch {
		case err != nil:
			// Transient poll errors are retried until the deadline
			c.logger.Debug("Confirmation poll for %s failed: %v", sig, err)
		case status == nil:
		case status.Err != nil:
			return fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
		case status.ConfirmationStatus != nil && reached(*status.ConfirmationStatus, commitment):
			metrics.ConfirmationTime.Observe(time.Since(start).Seconds())
			c.logger.Debug("Transaction %s reached %s in slot %d", sig, *status.ConfirmationStatus, status.Slot)
			return nil
		}

		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: signature %s: last error: %v", ErrConfirmationTimeout, sig, err)
			}
			return fmt.Errorf("%w: signature %s", ErrConfirmationTimeout, sig)
		case <-ticker.C:
		}
	}
}
