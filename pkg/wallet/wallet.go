package wallet

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/speedrun-hq/liberator/pkg/config"
	"github.com/speedrun-hq/liberator/pkg/logger"
)

// ErrNotConnected is returned when no source key was configured
var ErrNotConnected = errors.New("wallet not connected")

// Submitter broadcasts signed transactions
type Submitter interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Signer signs transactions with a local keypair and submits them
type Signer struct {
	key       solana.PrivateKey
	submitter Submitter
	logger    logger.Logger
}

// Load builds a signer from a keygen file or a secret key; with neither set
// the signer reports itself as not connected
func Load(cfg config.WalletConfig, submitter Submitter, log logger.Logger) (*Signer, error) {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	signer := &Signer{submitter: submitter, logger: log}

	switch {
	case cfg.KeypairPath != "":
		key, err := solana.PrivateKeyFromSolanaKeygenFile(cfg.KeypairPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read keypair file %s: %w", cfg.KeypairPath, err)
		}
		signer.key = key
	case cfg.PrivateKey != "":
		key, err := ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		signer.key = key
	default:
		log.Notice("No source key configured, wallet is not connected")
		return signer, nil
	}

	log.Info("Loaded source wallet %s", signer.PublicKey())
	return signer, nil
}

// ParsePrivateKey decodes a base58 secret key or a keygen-style JSON byte array
func ParsePrivateKey(secret string) (solana.PrivateKey, error) {
	secret = strings.TrimSpace(secret)

	var raw []byte
	if strings.HasPrefix(secret, "[") {
		var values []byte
		var ints []int
		if err := json.Unmarshal([]byte(secret), &ints); err != nil {
			return nil, fmt.Errorf("invalid secret key byte array: %w", err)
		}
		for _, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("invalid secret key byte array: value %d out of range", v)
			}
			values = append(values, byte(v))
		}
		raw = values
	} else {
		decoded, err := base58.Decode(secret)
		if err != nil {
			return nil, fmt.Errorf("invalid base58 secret key: %w", err)
		}
		raw = decoded
	}

	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid secret key length %d, expected %d", len(raw), ed25519.PrivateKeySize)
	}
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("secret key public half does not match its seed")
	}
	return solana.PrivateKey(raw), nil
}

// Connected reports whether a key was loaded
func (s *Signer) Connected() bool {
	return len(s.key) == ed25519.PrivateKeySize
}

// PublicKey returns the wallet address, the zero key when not connected
func (s *Signer) PublicKey() solana.PublicKey {
	if !s.Connected() {
		return solana.PublicKey{}
	}
	return s.key.PublicKey()
}

// SignAndSubmit signs tx as its fee payer and broadcasts it
func (s *Signer) SignAndSubmit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if !s.Connected() {
		return solana.Signature{}, ErrNotConnected
	}

	owner := s.PublicKey()
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(owner) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.submitter.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to submit transaction: %w", err)
	}
	s.logger.Debug("Submitted transaction %s", sig)
	return sig, nil
}
