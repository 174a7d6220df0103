package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	MigrationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liberator_migration_runs_total",
		Help: "The total number of migration runs by terminal outcome",
	}, []string{"outcome"})

	AssetsDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liberator_assets_discovered_total",
		Help: "The total number of non-zero assets found during discovery",
	}, []string{"kind"})

	AssetsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liberator_assets_processed_total",
		Help: "The total number of processed assets by kind and terminal state",
	}, []string{"kind", "state"})

	AssetProcessingTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "liberator_asset_processing_seconds",
		Help:    "Time taken to move a single asset, retries included",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // Start at 0.5s with 10 buckets doubling in size
	}, []string{"kind"})

	TransferAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liberator_transfer_attempts_total",
		Help: "The total number of build-sign-submit-confirm attempts",
	}, []string{"kind"})

	TransferRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liberator_transfer_retries_total",
		Help: "The total number of retries scheduled after a failed attempt",
	}, []string{"kind"})

	TokenAccountsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liberator_token_accounts_created_total",
		Help: "Transfers that included a create-associated-token-account instruction",
	}, []string{"namespace"})

	NativeSweptLamports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liberator_native_swept_lamports_total",
		Help: "Lamports moved by confirmed native sweeps",
	})

	EstimatedFeeLamports = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "liberator_estimated_fee_lamports",
		Help: "Fee estimate used by the most recent native sweep",
	})

	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liberator_rpc_calls_total",
		Help: "The total number of Solana RPC calls by method and status",
	}, []string{"method", "status"})

	RPCRateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liberator_rpc_rate_limit_waits_total",
		Help: "Number of RPC calls delayed by the client-side rate limiter",
	})

	ConfirmationTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "liberator_confirmation_seconds",
		Help:    "Time between submission and confirmed commitment",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})
)
