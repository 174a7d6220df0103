package chainclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/speedrun-hq/liberator/pkg/circuitbreaker"
	"github.com/speedrun-hq/liberator/pkg/config"
	"github.com/speedrun-hq/liberator/pkg/logger"
	"github.com/speedrun-hq/liberator/pkg/metrics"
)

// CommitmentConfirmed is the commitment used for queries and confirmation waits
const CommitmentConfirmed = "confirmed"

var (
	// ErrTransactionFailed is returned when a confirmed transaction carries an on-chain error
	ErrTransactionFailed = errors.New("transaction failed on-chain")

	// ErrConfirmationTimeout is returned when a signature does not reach the commitment in time
	ErrConfirmationTimeout = errors.New("transaction confirmation timed out")

	// ErrFeeUnavailable is returned when the node cannot price a message
	ErrFeeUnavailable = errors.New("fee estimate unavailable")

	// ErrCircuitOpen is returned while the RPC circuit breaker is tripped
	ErrCircuitOpen = circuitbreaker.ErrOpen
)

// RPCError is an error object returned by the Solana node
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    interface{}
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%s: rpc error %d: %s (%v)", e.Method, e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("%s: rpc error %d: %s", e.Method, e.Code, e.Message)
}

// Client is a Solana JSON-RPC client
type Client struct {
	RPCURL       string
	rpc          *rpc.Client
	limiter      *Limiter
	breaker      *circuitbreaker.CircuitBreaker
	timeout      time.Duration
	pollInterval time.Duration
	logger       logger.Logger
}

// New creates a new client connected to rpcURL
func New(ctx context.Context, rpcURL string, cfg config.RPCConfig, log logger.Logger) (*Client, error) {
	if log == nil {
		log = &logger.EmptyLogger{}
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	rpcClient, err := rpc.DialOptions(ctx, rpcURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %v", rpcURL, err)
	}

	cb := cfg.CircuitBreaker
	return &Client{
		RPCURL:       rpcURL,
		rpc:          rpcClient,
		limiter:      NewLimiter(cfg.RateLimit, cfg.RateBurst),
		breaker:      circuitbreaker.NewCircuitBreaker("rpc", cb.Enabled, cb.Threshold, cb.WindowDuration, cb.ResetTimeout, log),
		timeout:      cfg.ConfirmationTimeout,
		pollInterval: cfg.ConfirmationPollInterval,
		logger:       log,
	}, nil
}

// Breaker returns the circuit breaker guarding RPC calls
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// Close closes the underlying connection
func (c *Client) Close() {
	c.rpc.Close()
}

// call performs one rate-limited RPC call and decodes the result into result
func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	err := c.breaker.Do(func() error {
		return c.rpc.CallContext(ctx, result, method, args...)
	}, isTransportError)
	err = wrapError(method, err)

	metrics.RPCCallsTotal.WithLabelValues(method, ClassifyRPCError(err)).Inc()
	if err != nil {
		c.logger.Debug("RPC %s failed: %v", method, err)
	}
	return err
}

// isTransportError reports whether err says something about the endpoint's health.
// Node-side error objects and caller cancellations do not.
func isTransportError(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func wrapError(method string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Errorf("%s: %w", method, err)
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		wrapped := &RPCError{
			Method:  method,
			Code:    rpcErr.ErrorCode(),
			Message: rpcErr.Error(),
		}
		var dataErr rpc.DataError
		if errors.As(err, &dataErr) {
			wrapped.Data = dataErr.ErrorData()
		}
		return wrapped
	}
	return fmt.Errorf("%s: %w", method, err)
}
