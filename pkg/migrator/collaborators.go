package migrator

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/speedrun-hq/liberator/pkg/models"
)

// Chain is the read side of the Solana node the migrator talks to
type Chain interface {
	GetHoldings(ctx context.Context, owner solana.PublicKey, ns models.Namespace) ([]models.TokenHolding, error)
	GetNativeBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	AccountExists(ctx context.Context, address solana.PublicKey) (bool, error)
	EstimateFee(ctx context.Context, tx *solana.Transaction) (uint64, error)
	Confirm(ctx context.Context, sig solana.Signature, commitment string) error
}

// Signer is the connected source wallet.
// A zero PublicKey means no wallet is connected.
type Signer interface {
	PublicKey() solana.PublicKey
	SignAndSubmit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}
