package migrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/speedrun-hq/liberator/pkg/logger"
	"github.com/speedrun-hq/liberator/pkg/metrics"
	"github.com/speedrun-hq/liberator/pkg/models"
)

// DefaultCommitment is the commitment a submission must reach before the next asset starts
const DefaultCommitment = "confirmed"

// Config holds the static settings of a migrator
type Config struct {
	Destination   string
	RetryAttempts int
	RetryDelay    time.Duration
	Commitment    string
}

// Migrator moves every asset of the signer's wallet to the destination, one transaction per asset
type Migrator struct {
	chain  Chain
	signer Signer
	cfg    Config
	logger logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error

	running   atomic.Bool
	mu        sync.RWMutex
	current   *models.Run
	observers []func(models.Snapshot)
}

// New creates a new migrator
func New(chain Chain, signer Signer, cfg Config, log logger.Logger) *Migrator {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	if cfg.Commitment == "" {
		cfg.Commitment = DefaultCommitment
	}
	return &Migrator{
		chain:   chain,
		signer:  signer,
		cfg:     cfg,
		logger:  log,
		sleep:   sleepContext,
		current: models.NewRun(),
	}
}

// Subscribe registers fn on every run started after the call
func (m *Migrator) Subscribe(fn func(models.Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Current returns a snapshot of the latest run
func (m *Migrator) Current() models.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Snapshot()
}

// Running reports whether a run is in progress
func (m *Migrator) Running() bool {
	return m.running.Load()
}

// Start runs one migration to completion on a fresh run.
// The returned error is nil for a completed run and the abort cause otherwise.
func (m *Migrator) Start(ctx context.Context) (models.Snapshot, error) {
	if !m.running.CompareAndSwap(false, true) {
		return m.Current(), ErrMigrationInProgress
	}
	defer m.running.Store(false)

	run := m.newRun()
	err := m.execute(ctx, run)
	snapshot := run.Snapshot()

	outcome := string(snapshot.Status)
	if snapshot.Status == models.StatusAborted {
		outcome = string(snapshot.AbortReason)
	}
	metrics.MigrationRuns.WithLabelValues(outcome).Inc()
	return snapshot, err
}

// Plan validates the configuration and returns the worklist without sending anything
func (m *Migrator) Plan(ctx context.Context) (models.Worklist, error) {
	source, _, err := m.validate()
	if err != nil {
		return nil, err
	}
	return Discover(ctx, m.chain, source)
}

func (m *Migrator) newRun() *models.Run {
	run := models.NewRun()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, observer := range m.observers {
		run.Subscribe(observer)
	}
	m.current = run
	return run
}

// execute walks the stages of one run
func (m *Migrator) execute(ctx context.Context, run *models.Run) error {
	m.logger.Info("Starting migration process %s", run.Snapshot().ID)
	run.Start("Starting migration process...")

	source, destination, err := m.validate()
	if err != nil {
		return m.abort(run, models.AbortConfiguration, err)
	}

	run.EnterStage(models.StageDiscovering, "Discovering all transferable assets...")
	m.logger.Info("Discovering all transferable assets of %s", source)
	worklist, err := Discover(ctx, m.chain, source)
	if errors.Is(err, ErrNothingToMigrate) {
		return m.abort(run, models.AbortNothingToMigrate, err)
	} else if err != nil {
		return m.abort(run, models.AbortDiscovery, err)
	}
	m.logger.Info("Found %d assets to migrate (%d tokens)", len(worklist), worklist.TokenCount())

	run.EnterStage(models.StageProcessingAssets, fmt.Sprintf("Migrating %d assets...", len(worklist)))
	for i, asset := range worklist {
		if ctx.Err() != nil {
			return m.abort(run, models.AbortUnexpected, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err()))
		}
		run.SetProgress(models.Progress{Current: i + 1, Total: len(worklist), Asset: asset.Label()})
		run.AppendResult(m.process(ctx, run, asset, i+1, len(worklist), source, destination))
	}

	run.EnterStage(models.StageFinalizing, "Finalizing migration...")
	successes, failures := run.Snapshot().Counts()
	summary := fmt.Sprintf("Migration finished. %d successful, %d failed or skipped.", successes, failures)
	m.logger.Notice("%s", summary)
	run.Complete(summary)
	return nil
}

// validate resolves source and destination without touching the network
func (m *Migrator) validate() (solana.PublicKey, solana.PublicKey, error) {
	if m.signer == nil || m.signer.PublicKey().IsZero() {
		return solana.PublicKey{}, solana.PublicKey{}, ErrWalletNotConnected
	}
	source := m.signer.PublicKey()

	if strings.TrimSpace(m.cfg.Destination) == "" {
		return solana.PublicKey{}, solana.PublicKey{}, ErrInvalidDestination
	}
	destination, err := solana.PublicKeyFromBase58(strings.TrimSpace(m.cfg.Destination))
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidDestination, err)
	}

	if destination.Equals(source) {
		return solana.PublicKey{}, solana.PublicKey{}, ErrSameWallet
	}
	return source, destination, nil
}

func (m *Migrator) abort(run *models.Run, reason models.AbortReason, err error) error {
	message := UserMessage(err)
	if reason == models.AbortNothingToMigrate {
		m.logger.Notice("%s", message)
	} else {
		m.logger.Error("Migration aborted (%s): %v", reason, err)
	}
	run.Abort(reason, message)
	return err
}

// say updates the run message and logs it
func (m *Migrator) say(run *models.Run, asset string, message string) {
	run.SetMessage(message)
	m.logger.InfoWithAsset(asset, "%s", message)
}

// process moves one asset and returns its terminal result; it never aborts the run
func (m *Migrator) process(ctx context.Context, run *models.Run, asset models.Asset, position, total int, source, destination solana.PublicKey) models.AssetResult {
	start := time.Now()
	kind := string(asset.Kind)

	var result models.AssetResult
	if asset.IsNative() {
		result = m.processNative(ctx, run, asset, position, total, source, destination)
	} else {
		result = m.processToken(ctx, run, asset, position, total, source, destination)
	}

	metrics.AssetProcessingTime.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.AssetsProcessed.WithLabelValues(kind, string(result.State)).Inc()
	switch result.State {
	case models.StateSuccess:
		m.logger.NoticeWithAsset(result.Label, "Transferred in %d attempt(s): %s", result.Attempts, result.Signature)
	case models.StateSkipped:
		m.logger.NoticeWithAsset(result.Label, "Skipped: %s", result.Error)
	default:
		m.logger.ErrorWithAsset(result.Label, "Failed after %d attempt(s): %s", result.Attempts, result.Error)
	}
	return result
}

func (m *Migrator) processToken(ctx context.Context, run *models.Run, asset models.Asset, position, total int, source, destination solana.PublicKey) models.AssetResult {
	holding := *asset.Holding
	label := asset.Label()
	m.say(run, label, fmt.Sprintf("[%d/%d] Preparing %s %s", position, total, holding.DisplayAmount.String(), label))

	destinationAccount, err := DeriveTokenAccount(destination, holding.Mint, holding.Namespace)
	if err != nil {
		return models.FailedResult(asset, err, 0)
	}

	outcome := m.retryController(run, asset).Run(ctx, func(ctx context.Context, attempt int) (solana.Signature, error) {
		blockhash, err := m.chain.GetLatestBlockhash(ctx)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to get blockhash: %w", err)
		}

		exists, err := m.chain.AccountExists(ctx, destinationAccount)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to check destination token account: %w", err)
		}

		instructions, err := BuildTokenInstructions(holding, source, destination, destinationAccount, exists)
		if err != nil {
			return solana.Signature{}, err
		}
		tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(source))
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
		}

		m.say(run, label, fmt.Sprintf("[%d/%d] Awaiting signature for %s...", position, total, label))
		sig, err := m.submitAndConfirm(ctx, tx)
		if err == nil && !exists {
			metrics.TokenAccountsCreated.WithLabelValues(holding.Namespace.String()).Inc()
		}
		return sig, err
	})

	return m.resultFrom(asset, outcome)
}

func (m *Migrator) processNative(ctx context.Context, run *models.Run, asset models.Asset, position, total int, source, destination solana.PublicKey) models.AssetResult {
	label := asset.Label()
	m.say(run, label, fmt.Sprintf("[%d/%d] Preparing native SOL transfer...", position, total))

	sweep, err := ComputeSweep(ctx, m.chain, source, destination, m.logger)
	if err != nil {
		return models.FailedResult(asset, err, 0)
	}
	if sweep.Skip {
		m.logger.DebugWithAsset(label, "Balance %d lamports does not cover fee %d", sweep.Balance, sweep.Fee)
		return models.SkippedResult(asset, SkipReason)
	}

	outcome := m.retryController(run, asset).Run(ctx, func(ctx context.Context, attempt int) (solana.Signature, error) {
		blockhash, err := m.chain.GetLatestBlockhash(ctx)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to get blockhash: %w", err)
		}

		tx, err := nativeTransfer(sweep.Amount, source, destination, blockhash)
		if err != nil {
			return solana.Signature{}, err
		}

		m.say(run, label, fmt.Sprintf("[%d/%d] Awaiting signature for %s SOL...", position, total, models.LamportsToSOL(sweep.Amount).String()))
		return m.submitAndConfirm(ctx, tx)
	})

	if outcome.Succeeded() {
		metrics.NativeSweptLamports.Add(float64(sweep.Amount))
	}
	return m.resultFrom(asset, outcome)
}

// retryController builds the per-asset retry loop with status messages
func (m *Migrator) retryController(run *models.Run, asset models.Asset) *RetryController {
	label := asset.Label()
	kind := string(asset.Kind)

	rc := NewRetryController(m.cfg.RetryAttempts, m.cfg.RetryDelay)
	rc.sleep = m.sleep
	rc.OnRetry = func(retry int, err error) {
		metrics.TransferRetries.WithLabelValues(kind).Inc()
		m.logger.DebugWithAsset(label, "Attempt %d failed: %v", retry, err)
		m.say(run, label, fmt.Sprintf("Failed to transfer %s. Retrying (%d/%d)...", label, retry, m.cfg.RetryAttempts))
	}
	return rc
}

// submitAndConfirm signs, submits, and waits for the commitment.
// Once a signature exists the wait is not cancelled with ctx.
func (m *Migrator) submitAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := m.signer.SignAndSubmit(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}

	if err := m.chain.Confirm(context.WithoutCancel(ctx), sig, m.cfg.Commitment); err != nil {
		return solana.Signature{}, fmt.Errorf("transaction %s not confirmed: %w", sig, err)
	}
	return sig, nil
}

func (m *Migrator) resultFrom(asset models.Asset, outcome Outcome) models.AssetResult {
	metrics.TransferAttempts.WithLabelValues(string(asset.Kind)).Add(float64(outcome.Attempts))
	if outcome.Succeeded() {
		return models.SuccessResult(asset, outcome.Signature.String(), outcome.Attempts)
	}
	err := outcome.Err
	if err.Error() == "" {
		err = errUnknown
	}
	return models.FailedResult(asset, err, outcome.Attempts)
}
