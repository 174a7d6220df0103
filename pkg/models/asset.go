package models

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// NativeLabel is the display label of the native SOL balance
const NativeLabel = "SOL"

// NativeDecimals is the number of decimals of one SOL in lamports
const NativeDecimals = 9

// AssetKind discriminates the Asset union
type AssetKind string

const (
	AssetToken  AssetKind = "token"
	AssetNative AssetKind = "native"
)

// TokenHolding is a balance held in one token account of the source wallet
type TokenHolding struct {
	Namespace     Namespace        `json:"namespace" yaml:"namespace"`
	Mint          solana.PublicKey `json:"mint" yaml:"mint"`
	SourceAccount solana.PublicKey `json:"source_account" yaml:"source_account"`
	RawAmount     uint64           `json:"raw_amount" yaml:"raw_amount"`
	Decimals      uint8            `json:"decimals" yaml:"decimals"`
	DisplayAmount decimal.Decimal  `json:"display_amount" yaml:"display_amount"`
}

// Asset is one entry of the worklist: either a token holding or the native balance
type Asset struct {
	Kind AssetKind `json:"kind" yaml:"kind"`

	// NativeAmount is the lamport balance seen at discovery time
	NativeAmount uint64 `json:"native_amount,omitempty" yaml:"native_amount,omitempty"`

	Holding *TokenHolding `json:"holding,omitempty" yaml:"holding,omitempty"`
}

// NewTokenAsset wraps a holding into an Asset
func NewTokenAsset(holding TokenHolding) Asset {
	return Asset{Kind: AssetToken, Holding: &holding}
}

// NewNativeAsset wraps a lamport balance into an Asset
func NewNativeAsset(lamports uint64) Asset {
	return Asset{Kind: AssetNative, NativeAmount: lamports}
}

// IsNative reports whether the asset is the native balance
func (a Asset) IsNative() bool {
	return a.Kind == AssetNative
}

// Label returns the human readable label, "SOL" or "Token (ABCD...WXYZ)"
func (a Asset) Label() string {
	if a.IsNative() || a.Holding == nil {
		return NativeLabel
	}
	return TokenLabel(a.Holding.Mint)
}

// DisplayAmount returns the amount in whole units
func (a Asset) DisplayAmount() decimal.Decimal {
	if a.IsNative() || a.Holding == nil {
		return LamportsToSOL(a.NativeAmount)
	}
	return a.Holding.DisplayAmount
}

// TokenLabel shortens a mint address to its first and last four characters
func TokenLabel(mint solana.PublicKey) string {
	address := mint.String()
	if len(address) <= 8 {
		return fmt.Sprintf("Token (%s)", address)
	}
	return fmt.Sprintf("Token (%s...%s)", address[:4], address[len(address)-4:])
}

// LamportsToSOL converts a lamport amount to SOL
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -NativeDecimals)
}

// Worklist is the ordered list of assets to migrate: tokens first, native last
type Worklist []Asset

// NewWorklist orders holdings before the native balance; a zero native balance is omitted
func NewWorklist(holdings []TokenHolding, nativeBalance uint64) Worklist {
	worklist := make(Worklist, 0, len(holdings)+1)
	for _, holding := range holdings {
		worklist = append(worklist, NewTokenAsset(holding))
	}
	if nativeBalance > 0 {
		worklist = append(worklist, NewNativeAsset(nativeBalance))
	}
	return worklist
}

// TokenCount returns the number of token holdings in the worklist
func (w Worklist) TokenCount() int {
	count := 0
	for _, asset := range w {
		if !asset.IsNative() {
			count++
		}
	}
	return count
}
