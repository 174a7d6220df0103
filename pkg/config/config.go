package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/speedrun-hq/liberator/pkg/clusters"
	"github.com/speedrun-hq/liberator/pkg/logger"
)

// Config holds the configuration for the migration tool
type Config struct {
	DestinationWallet string
	Cluster           clusters.Cluster
	RPCURL            string
	RetryAttempts     int
	RetryDelay        time.Duration
	RPC               RPCConfig
	Wallet            WalletConfig
	MetricsPort       string
	MetricsAPIKey     string
	LoggerConfig      LoggerConfig
}

// RPCConfig holds rate limiting and confirmation settings for the RPC client
type RPCConfig struct {
	RateLimit                float64
	RateBurst                int
	ConfirmationTimeout      time.Duration
	ConfirmationPollInterval time.Duration
	CircuitBreaker           CircuitBreakerConfig
}

// CircuitBreakerConfig holds circuit breaker configuration for RPC calls
type CircuitBreakerConfig struct {
	Enabled        bool
	Threshold      int
	WindowDuration time.Duration
	ResetTimeout   time.Duration
}

// WalletConfig holds where the source keypair is loaded from
type WalletConfig struct {
	KeypairPath string
	PrivateKey  string
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cluster, err := GetEnvCluster()
	if err != nil {
		return nil, err
	}

	rpcURL, err := GetEnvRPCURL(cluster)
	if err != nil {
		return nil, err
	}

	retryAttempts, err := GetEnvRetryAttempts()
	if err != nil {
		return nil, err
	}

	retryDelay, err := GetEnvRetryDelay()
	if err != nil {
		return nil, err
	}

	rateLimit, err := GetEnvRPCRateLimit()
	if err != nil {
		return nil, err
	}

	rateBurst, err := GetEnvRPCRateBurst()
	if err != nil {
		return nil, err
	}

	confirmationTimeout, err := GetEnvConfirmationTimeout()
	if err != nil {
		return nil, err
	}

	pollInterval, err := GetEnvConfirmationPollInterval()
	if err != nil {
		return nil, err
	}

	cbEnabled, err := GetEnvCircuitBreakerEnabled()
	if err != nil {
		return nil, err
	}

	cbThreshold, err := GetEnvCircuitBreakerThreshold()
	if err != nil {
		return nil, err
	}

	cbWindow, err := GetEnvCircuitBreakerWindow()
	if err != nil {
		return nil, err
	}

	cbReset, err := GetEnvCircuitBreakerReset()
	if err != nil {
		return nil, err
	}

	metricsPort, err := GetEnvMetricsPort()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DestinationWallet: GetEnvDestinationWallet(),
		Cluster:           cluster,
		RPCURL:            rpcURL,
		RetryAttempts:     retryAttempts,
		RetryDelay:        retryDelay,
		RPC: RPCConfig{
			RateLimit:                rateLimit,
			RateBurst:                rateBurst,
			ConfirmationTimeout:      confirmationTimeout,
			ConfirmationPollInterval: pollInterval,
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:        cbEnabled,
				Threshold:      cbThreshold,
				WindowDuration: cbWindow,
				ResetTimeout:   cbReset,
			},
		},
		Wallet: WalletConfig{
			KeypairPath: os.Getenv("SOURCE_KEYPAIR"),
			PrivateKey:  os.Getenv("SOURCE_PRIVATE_KEY"),
		},
		MetricsPort:   metricsPort,
		MetricsAPIKey: os.Getenv("METRICS_API_KEY"),
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Wallet.KeypairPath != "" && cfg.Wallet.PrivateKey != "" {
		return fmt.Errorf("SOURCE_KEYPAIR and SOURCE_PRIVATE_KEY are mutually exclusive")
	}
	if cfg.RPC.ConfirmationPollInterval >= cfg.RPC.ConfirmationTimeout {
		return fmt.Errorf("CONFIRMATION_POLL_INTERVAL must be shorter than CONFIRMATION_TIMEOUT")
	}
	return nil
}
