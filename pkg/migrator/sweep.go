package migrator

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/speedrun-hq/liberator/pkg/logger"
	"github.com/speedrun-hq/liberator/pkg/metrics"
	"github.com/speedrun-hq/liberator/pkg/models"
)

// SkipReason is recorded when the native balance cannot pay for its own transfer
const SkipReason = "Balance too low to cover transaction fees."

// SweepDecision is the outcome of the fee-aware native sweep calculation
type SweepDecision struct {
	Balance uint64
	Fee     uint64
	Amount  uint64
	Skip    bool
}

// SweepAmount returns balance minus fee, and false when nothing would be left to send
func SweepAmount(balance, fee uint64) (uint64, bool) {
	if balance <= fee {
		return 0, false
	}
	return balance - fee, true
}

// ComputeSweep re-reads the source balance and prices a draft transfer of all of it.
// The draft is never submitted. A failed fee estimate counts as a zero fee.
func ComputeSweep(ctx context.Context, chain Chain, source, destination solana.PublicKey, log logger.Logger) (SweepDecision, error) {
	balance, err := chain.GetNativeBalance(ctx, source)
	if err != nil {
		return SweepDecision{}, fmt.Errorf("failed to get native balance: %w", err)
	}

	blockhash, err := chain.GetLatestBlockhash(ctx)
	if err != nil {
		return SweepDecision{}, fmt.Errorf("failed to get blockhash for fee estimate: %w", err)
	}

	draft, err := nativeTransfer(balance, source, destination, blockhash)
	if err != nil {
		return SweepDecision{}, err
	}

	fee, err := chain.EstimateFee(ctx, draft)
	if err != nil {
		log.ErrorWithAsset(models.NativeLabel, "Fee estimate failed, assuming zero fee: %v", err)
		fee = 0
	}
	metrics.EstimatedFeeLamports.Set(float64(fee))

	amount, ok := SweepAmount(balance, fee)
	return SweepDecision{Balance: balance, Fee: fee, Amount: amount, Skip: !ok}, nil
}

// nativeTransfer builds a single system transfer paid by source
func nativeTransfer(lamports uint64, source, destination solana.PublicKey, blockhash solana.Hash) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(lamports, source, destination).Build()},
		blockhash,
		solana.TransactionPayer(source),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build native transfer: %w", err)
	}
	return tx, nil
}
