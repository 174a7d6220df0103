package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/speedrun-hq/liberator/pkg/clusters"
	"github.com/speedrun-hq/liberator/pkg/logger"
)

const (
	// DefaultCluster is the Solana cluster used when SOLANA_CLUSTER is not set
	DefaultCluster = clusters.Devnet

	// DefaultRetryAttempts defines how many times a failed transfer is retried after the first attempt
	DefaultRetryAttempts = 3

	// DefaultRetryDelay defines the fixed delay between two attempts for the same asset
	DefaultRetryDelay = 2 * time.Second

	// DefaultRPCRateLimit defines the default number of RPC requests per second
	DefaultRPCRateLimit = 10.0

	// DefaultRPCRateBurst defines the default burst size of the RPC rate limiter
	DefaultRPCRateBurst = 5

	// DefaultConfirmationTimeout bounds the wait for a submitted transaction to be confirmed
	DefaultConfirmationTimeout = 60 * time.Second

	// DefaultConfirmationPollInterval defines how often signature statuses are polled
	DefaultConfirmationPollInterval = 500 * time.Millisecond

	// DefaultCircuitBreakerEnabled defines whether the RPC circuit breaker is enabled
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold defines the number of RPC failures before the circuit breaker trips
	DefaultCircuitBreakerThreshold = 5

	// DefaultCircuitBreakerWindow defines the time window in which failures are counted
	DefaultCircuitBreakerWindow = 30 * time.Second

	// DefaultCircuitBreakerReset defines how long a tripped circuit stays open
	DefaultCircuitBreakerReset = 15 * time.Second

	// DefaultMetricsPort defines the default port for the status and metrics server
	DefaultMetricsPort = "8080"

	// DefaultLogLevel defines the default log level
	DefaultLogLevel = "info"
)

// GetEnvDestinationWallet returns the raw destination address.
// The value is validated by the migrator before any transfer, not here.
func GetEnvDestinationWallet() string {
	return strings.TrimSpace(os.Getenv("DESTINATION_WALLET"))
}

// GetEnvCluster returns the configured Solana cluster
func GetEnvCluster() (clusters.Cluster, error) {
	value := os.Getenv("SOLANA_CLUSTER")
	if value == "" {
		return DefaultCluster, nil
	}

	cluster, ok := clusters.Parse(value)
	if !ok {
		return "", fmt.Errorf("invalid SOLANA_CLUSTER value: %s, must be one of %s", value, strings.Join(clusters.Names(), ", "))
	}
	return cluster, nil
}

// GetEnvRPCURL returns the RPC endpoint, falling back to the cluster's public endpoint
func GetEnvRPCURL(cluster clusters.Cluster) (string, error) {
	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		return clusters.DefaultRPCURL(cluster), nil
	}

	// Validate URL format
	if _, err := url.ParseRequestURI(rpcURL); err != nil {
		return "", fmt.Errorf("invalid RPC_URL value: %s, must be a valid URL", rpcURL)
	}
	return rpcURL, nil
}

// GetEnvRetryAttempts returns the number of retries per asset
func GetEnvRetryAttempts() (int, error) {
	retryAttempts := os.Getenv("RETRY_ATTEMPTS")
	if retryAttempts == "" {
		return DefaultRetryAttempts, nil
	}

	attempts, err := strconv.Atoi(retryAttempts)
	if err != nil {
		return 0, fmt.Errorf("invalid RETRY_ATTEMPTS value: %s, must be an integer", retryAttempts)
	}
	if attempts < 0 {
		return 0, fmt.Errorf("RETRY_ATTEMPTS must be greater than or equal to 0")
	}
	return attempts, nil
}

// GetEnvRetryDelay returns the delay between two attempts
func GetEnvRetryDelay() (time.Duration, error) {
	return getEnvDuration("RETRY_DELAY", DefaultRetryDelay, true)
}

// GetEnvRPCRateLimit returns the allowed RPC requests per second
func GetEnvRPCRateLimit() (float64, error) {
	rateLimit := os.Getenv("RPC_RATE_LIMIT")
	if rateLimit == "" {
		return DefaultRPCRateLimit, nil
	}

	rps, err := strconv.ParseFloat(rateLimit, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid RPC_RATE_LIMIT value: %s, must be a number", rateLimit)
	}
	if rps <= 0 {
		return 0, fmt.Errorf("RPC_RATE_LIMIT must be greater than 0")
	}
	return rps, nil
}

// GetEnvRPCRateBurst returns the burst size of the RPC limiter
func GetEnvRPCRateBurst() (int, error) {
	burst := os.Getenv("RPC_RATE_BURST")
	if burst == "" {
		return DefaultRPCRateBurst, nil
	}

	burstInt, err := strconv.Atoi(burst)
	if err != nil {
		return 0, fmt.Errorf("invalid RPC_RATE_BURST value: %s, must be an integer", burst)
	}
	if burstInt <= 0 {
		return 0, fmt.Errorf("RPC_RATE_BURST must be greater than 0")
	}
	return burstInt, nil
}

// GetEnvConfirmationTimeout returns how long a submitted transaction may take to confirm
func GetEnvConfirmationTimeout() (time.Duration, error) {
	return getEnvDuration("CONFIRMATION_TIMEOUT", DefaultConfirmationTimeout, false)
}

// GetEnvConfirmationPollInterval returns the signature status polling interval
func GetEnvConfirmationPollInterval() (time.Duration, error) {
	return getEnvDuration("CONFIRMATION_POLL_INTERVAL", DefaultConfirmationPollInterval, false)
}

// GetEnvCircuitBreakerEnabled returns whether the RPC circuit breaker is enabled
func GetEnvCircuitBreakerEnabled() (bool, error) {
	enabled := os.Getenv("CIRCUIT_BREAKER_ENABLED")
	if enabled == "" {
		return DefaultCircuitBreakerEnabled, nil
	}

	if enabled == "true" {
		return true, nil
	} else if enabled == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid CIRCUIT_BREAKER_ENABLED value: %s, must be 'true' or 'false'", enabled)
}

// GetEnvCircuitBreakerThreshold returns the circuit breaker threshold
func GetEnvCircuitBreakerThreshold() (int, error) {
	threshold := os.Getenv("CIRCUIT_BREAKER_THRESHOLD")
	if threshold == "" {
		return DefaultCircuitBreakerThreshold, nil
	}

	thresholdInt, err := strconv.Atoi(threshold)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_THRESHOLD value: %s, must be an integer", threshold)
	}
	if thresholdInt <= 0 {
		return 0, fmt.Errorf("CIRCUIT_BREAKER_THRESHOLD must be greater than 0")
	}
	return thresholdInt, nil
}

// GetEnvCircuitBreakerWindow returns the circuit breaker failure window
func GetEnvCircuitBreakerWindow() (time.Duration, error) {
	return getEnvDuration("CIRCUIT_BREAKER_WINDOW", DefaultCircuitBreakerWindow, false)
}

// GetEnvCircuitBreakerReset returns the circuit breaker reset timeout
func GetEnvCircuitBreakerReset() (time.Duration, error) {
	return getEnvDuration("CIRCUIT_BREAKER_RESET", DefaultCircuitBreakerReset, false)
}

// GetEnvMetricsPort returns the status server port from environment variables
func GetEnvMetricsPort() (string, error) {
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		return DefaultMetricsPort, nil
	}

	// Validate port format
	if _, err := strconv.Atoi(metricsPort); err != nil {
		return "", fmt.Errorf("invalid METRICS_PORT value: %s, must be a valid integer", metricsPort)
	}
	return metricsPort, nil
}

// GetEnvLogLevel returns the log level from environment variables
func GetEnvLogLevel() (logger.Level, error) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = DefaultLogLevel
	}

	switch strings.ToLower(level) {
	case "debug":
		return logger.DebugLevel, nil
	case "info":
		return logger.InfoLevel, nil
	case "notice":
		return logger.NoticeLevel, nil
	case "error":
		return logger.ErrorLevel, nil
	}
	return 0, fmt.Errorf("invalid LOG_LEVEL value: %s, must be 'debug', 'info', 'notice' or 'error'", level)
}

// GetEnvLogColoring returns whether log output is colored
func GetEnvLogColoring() (bool, error) {
	coloring := os.Getenv("LOG_COLORING")
	if coloring == "" {
		return true, nil
	}

	if coloring == "true" {
		return true, nil
	} else if coloring == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid LOG_COLORING value: %s, must be 'true' or 'false'", coloring)
}

// getEnvDuration parses a duration variable; allowZero permits "0s"
func getEnvDuration(key string, fallback time.Duration, allowZero bool) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %s, must be a valid duration string", key, value)
	}
	if parsed < 0 || (parsed == 0 && !allowZero) {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return parsed, nil
}
