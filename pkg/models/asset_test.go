package models

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceProgramID(t *testing.T) {
	assert.Equal(t, solana.TokenProgramID, Legacy.ProgramID())
	assert.Equal(t, "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb", Extended.ProgramID().String())
	assert.Equal(t, "token", Legacy.String())
	assert.Equal(t, "token-2022", Extended.String())
}

func TestAssetLabel(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	token := NewTokenAsset(TokenHolding{Mint: mint})

	assert.Equal(t, "Token (EPjF...Dt1v)", token.Label())
	assert.Equal(t, "SOL", NewNativeAsset(1).Label())
}

func TestLamportsToSOL(t *testing.T) {
	assert.True(t, decimal.RequireFromString("0.009995").Equal(LamportsToSOL(9_995_000)))
	assert.True(t, decimal.Zero.Equal(LamportsToSOL(0)))
	assert.Equal(t, "0.01", NewNativeAsset(10_000_000).DisplayAmount().String())
}

func TestNewWorklist(t *testing.T) {
	holdings := []TokenHolding{
		{Namespace: Legacy, Mint: solana.NewWallet().PublicKey(), RawAmount: 1},
		{Namespace: Extended, Mint: solana.NewWallet().PublicKey(), RawAmount: 2},
	}

	worklist := NewWorklist(holdings, 500)
	require.Len(t, worklist, 3)
	assert.Equal(t, Legacy, worklist[0].Holding.Namespace)
	assert.Equal(t, Extended, worklist[1].Holding.Namespace)
	assert.True(t, worklist[2].IsNative(), "native balance must come last")
	assert.Equal(t, 2, worklist.TokenCount())

	assert.Len(t, NewWorklist(holdings, 0), 2, "zero native balance is not a worklist entry")
	assert.Empty(t, NewWorklist(nil, 0))
}
