package migrator

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Operation is one build-sign-submit-confirm pass; attempt starts at 0
type Operation func(ctx context.Context, attempt int) (solana.Signature, error)

// Outcome is the terminal result of a retry loop
type Outcome struct {
	Signature solana.Signature
	Err       error
	Attempts  int
	Delays    int
}

// Succeeded reports whether an attempt went through
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// RetryController runs an operation up to MaxRetries+1 times with a fixed delay in between
type RetryController struct {
	MaxRetries int
	Delay      time.Duration

	// OnRetry is called before waiting for retry number retry (1-based)
	OnRetry func(retry int, err error)

	sleep func(ctx context.Context, d time.Duration) error
}

// retryState is the per-asset state of the loop
type retryState struct {
	attempt  int
	attempts int
	lastErr  error
	delays   int
}

// NewRetryController creates a controller sleeping on the wall clock
func NewRetryController(maxRetries int, delay time.Duration) *RetryController {
	return &RetryController{
		MaxRetries: maxRetries,
		Delay:      delay,
		sleep:      sleepContext,
	}
}

// Run executes op until it succeeds or the attempts are exhausted.
// Cancelling ctx ends the loop early with the context error.
func (rc *RetryController) Run(ctx context.Context, op Operation) Outcome {
	state := retryState{}
	for state.attempt = 0; state.attempt <= rc.MaxRetries; state.attempt++ {
		if err := ctx.Err(); err != nil {
			state.lastErr = err
			break
		}

		state.attempts++
		sig, err := op(ctx, state.attempt)
		if err == nil {
			return Outcome{Signature: sig, Attempts: state.attempts, Delays: state.delays}
		}
		state.lastErr = err

		if state.attempt == rc.MaxRetries {
			break
		}
		if rc.OnRetry != nil {
			rc.OnRetry(state.attempt+1, err)
		}
		if err := rc.sleep(ctx, rc.Delay); err != nil {
			state.lastErr = err
			break
		}
		state.delays++
	}
	return Outcome{Err: state.lastErr, Attempts: state.attempts, Delays: state.delays}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
