package chainclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/speedrun-hq/liberator/pkg/metrics"
	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket rate limiter for RPC calls
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a rate limiter that allows rps requests per second
// with a burst capacity of burst tokens
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Wait blocks until the limiter allows one call, or ctx is done
func (l *Limiter) Wait(ctx context.Context) error {
	r := l.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("rate: cannot reserve token")
	}
	delay := r.Delay()
	if delay > 0 {
		metrics.RPCRateLimitWaits.Inc()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			r.Cancel()
			return ctx.Err()
		}
	}
	return nil
}

// ClassifyRPCError classifies an RPC error into a metrics label
func ClassifyRPCError(err error) string {
	if err == nil {
		return "ok"
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return "rpc_error"
	}
	if errors.Is(err, ErrCircuitOpen) {
		return "circuit_open"
	}
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return "timeout"
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "429") || strings.Contains(lower, "too many requests"):
		return "rate_limited"
	case strings.Contains(lower, "500") || strings.Contains(lower, "502") || strings.Contains(lower, "503") || strings.Contains(lower, "internal server error"):
		return "server_error"
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") || strings.Contains(lower, "eof"):
		return "network_error"
	default:
		return "client_error"
	}
}
