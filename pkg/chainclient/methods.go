package chainclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/speedrun-hq/liberator/pkg/models"
)

func commitment() map[string]interface{} {
	return map[string]interface{}{"commitment": CommitmentConfirmed}
}

// GetHoldings lists the token accounts owned by owner under one token program
func (c *Client) GetHoldings(ctx context.Context, owner solana.PublicKey, ns models.Namespace) ([]models.TokenHolding, error) {
	var result tokenAccountsResult
	err := c.call(ctx, &result, "getTokenAccountsByOwner",
		owner.String(),
		map[string]interface{}{"programId": ns.ProgramID().String()},
		map[string]interface{}{"encoding": "jsonParsed", "commitment": CommitmentConfirmed},
	)
	if err != nil {
		return nil, err
	}

	holdings := make([]models.TokenHolding, 0, len(result.Value))
	for _, account := range result.Value {
		holding, err := parseHolding(account, ns)
		if err != nil {
			return nil, fmt.Errorf("failed to parse token account %s: %w", account.Pubkey, err)
		}
		holdings = append(holdings, holding)
	}
	return holdings, nil
}

func parseHolding(account tokenAccount, ns models.Namespace) (models.TokenHolding, error) {
	info := account.Account.Data.Parsed.Info

	source, err := solana.PublicKeyFromBase58(account.Pubkey)
	if err != nil {
		return models.TokenHolding{}, fmt.Errorf("invalid account address: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(info.Mint)
	if err != nil {
		return models.TokenHolding{}, fmt.Errorf("invalid mint address: %w", err)
	}
	raw, err := strconv.ParseUint(info.TokenAmount.Amount, 10, 64)
	if err != nil {
		return models.TokenHolding{}, fmt.Errorf("invalid token amount %q: %w", info.TokenAmount.Amount, err)
	}

	display := decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(info.TokenAmount.Decimals))
	if info.TokenAmount.UIAmountString != "" {
		if parsed, err := decimal.NewFromString(info.TokenAmount.UIAmountString); err == nil {
			display = parsed
		}
	}

	return models.TokenHolding{
		Namespace:     ns,
		Mint:          mint,
		SourceAccount: source,
		RawAmount:     raw,
		Decimals:      info.TokenAmount.Decimals,
		DisplayAmount: display,
	}, nil
}

// GetNativeBalance returns the lamport balance of account
func (c *Client) GetNativeBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var result balanceResult
	if err := c.call(ctx, &result, "getBalance", account.String(), commitment()); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetLatestBlockhash returns a recent blockhash for a new transaction
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var result blockhashResult
	if err := c.call(ctx, &result, "getLatestBlockhash", commitment()); err != nil {
		return solana.Hash{}, err
	}
	hash, err := solana.HashFromBase58(result.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("invalid blockhash %q: %w", result.Value.Blockhash, err)
	}
	return hash, nil
}

// AccountExists reports whether address holds an account
func (c *Client) AccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	var result accountInfoResult
	err := c.call(ctx, &result, "getAccountInfo",
		address.String(),
		map[string]interface{}{"encoding": "base64", "commitment": CommitmentConfirmed},
	)
	if err != nil {
		return false, err
	}
	return result.Value != nil, nil
}

// EstimateFee returns the fee the node would charge for the transaction's message
func (c *Client) EstimateFee(ctx context.Context, tx *solana.Transaction) (uint64, error) {
	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("failed to encode message: %w", err)
	}

	var result feeResult
	err = c.call(ctx, &result, "getFeeForMessage", base64.StdEncoding.EncodeToString(message), commitment())
	if err != nil {
		return 0, err
	}
	if result.Value == nil {
		return 0, ErrFeeUnavailable
	}
	return *result.Value, nil
}

// SendTransaction submits a signed transaction and returns its signature
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to encode transaction: %w", err)
	}

	var signature string
	err = c.call(ctx, &signature, "sendTransaction",
		base64.StdEncoding.EncodeToString(raw),
		map[string]interface{}{"encoding": "base64", "preflightCommitment": CommitmentConfirmed},
	)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("invalid signature %q: %w", signature, err)
	}
	return sig, nil
}

// GetSignatureStatus returns the status of one signature, nil when the node has not seen it
func (c *Client) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	var result signatureStatusesResult
	err := c.call(ctx, &result, "getSignatureStatuses",
		[]string{sig.String()},
		map[string]interface{}{"searchTransactionHistory": false},
	)
	if err != nil {
		return nil, err
	}
	if len(result.Value) == 0 {
		return nil, nil
	}
	return result.Value[0], nil
}
