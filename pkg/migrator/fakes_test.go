package migrator

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/liberator/pkg/models"
)

// fakeChain is an in-memory Chain recording every call
type fakeChain struct {
	mu sync.Mutex

	holdings    map[models.Namespace][]models.TokenHolding
	holdingsErr error
	balances    []uint64
	balanceErrs []error
	existing    map[solana.PublicKey]bool
	fee         uint64
	feeErr      error
	confirmErrs []error

	calls        []string
	balanceCalls int
	confirmCalls int
	blockhashes  int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		holdings: map[models.Namespace][]models.TokenHolding{},
		existing: map[solana.PublicKey]bool{},
	}
}

func (f *fakeChain) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeChain) GetHoldings(_ context.Context, _ solana.PublicKey, ns models.Namespace) ([]models.TokenHolding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("getHoldings:" + ns.String())
	if f.holdingsErr != nil {
		return nil, f.holdingsErr
	}
	return f.holdings[ns], nil
}

func (f *fakeChain) GetNativeBalance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("getBalance")
	call := f.balanceCalls
	f.balanceCalls++
	if call < len(f.balanceErrs) && f.balanceErrs[call] != nil {
		return 0, f.balanceErrs[call]
	}
	if len(f.balances) == 0 {
		return 0, nil
	}
	if call >= len(f.balances) {
		call = len(f.balances) - 1
	}
	return f.balances[call], nil
}

func (f *fakeChain) GetLatestBlockhash(_ context.Context) (solana.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("getLatestBlockhash")
	f.blockhashes++
	return solana.Hash{byte(f.blockhashes)}, nil
}

func (f *fakeChain) AccountExists(_ context.Context, address solana.PublicKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("accountExists")
	return f.existing[address], nil
}

func (f *fakeChain) EstimateFee(_ context.Context, _ *solana.Transaction) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("estimateFee")
	return f.fee, f.feeErr
}

func (f *fakeChain) Confirm(_ context.Context, _ solana.Signature, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("confirm")
	call := f.confirmCalls
	f.confirmCalls++
	if call < len(f.confirmErrs) {
		return f.confirmErrs[call]
	}
	return nil
}

func (f *fakeChain) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeSigner fails submissions according to errs, in submission order
type fakeSigner struct {
	mu        sync.Mutex
	key       solana.PublicKey
	errs      []error
	submitted []*solana.Transaction
	calls     int
	block     chan struct{}
	entered   chan struct{}
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{key: solana.NewWallet().PublicKey()}
}

func (s *fakeSigner) PublicKey() solana.PublicKey {
	return s.key
}

func (s *fakeSigner) SignAndSubmit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if s.block != nil {
		if s.entered != nil {
			close(s.entered)
			s.entered = nil
		}
		<-s.block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	call := s.calls
	s.calls++
	if call < len(s.errs) && s.errs[call] != nil {
		return solana.Signature{}, s.errs[call]
	}
	s.submitted = append(s.submitted, tx)
	return solana.Signature{byte(call + 1)}, nil
}

// recordedSleep replaces wall-clock delays in tests
type recordedSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newTestMigrator(chain Chain, signer Signer, destination solana.PublicKey, retries int) (*Migrator, *recordedSleep) {
	m := New(chain, signer, Config{
		Destination:   destination.String(),
		RetryAttempts: retries,
		RetryDelay:    2 * time.Second,
	}, nil)
	sleeper := &recordedSleep{}
	m.sleep = sleeper.sleep
	return m, sleeper
}

func tokenHolding(ns models.Namespace, raw uint64, decimals uint8) models.TokenHolding {
	return models.TokenHolding{
		Namespace:     ns,
		Mint:          solana.NewWallet().PublicKey(),
		SourceAccount: solana.NewWallet().PublicKey(),
		RawAmount:     raw,
		Decimals:      decimals,
		DisplayAmount: decimal.New(int64(raw), -int32(decimals)),
	}
}

// decodedInstruction is a compiled instruction with its keys resolved
type decodedInstruction struct {
	program  solana.PublicKey
	accounts []solana.PublicKey
	data     []byte
}

func decodeInstructions(t *testing.T, tx *solana.Transaction) []decodedInstruction {
	t.Helper()
	var out []decodedInstruction
	for _, compiled := range tx.Message.Instructions {
		program := tx.Message.AccountKeys[compiled.ProgramIDIndex]
		accounts := make([]solana.PublicKey, 0, len(compiled.Accounts))
		for _, index := range compiled.Accounts {
			accounts = append(accounts, tx.Message.AccountKeys[index])
		}
		out = append(out, decodedInstruction{program: program, accounts: accounts, data: compiled.Data})
	}
	return out
}

// systemTransferLamports decodes a system Transfer instruction amount
func systemTransferLamports(t *testing.T, ix decodedInstruction) uint64 {
	t.Helper()
	require.Equal(t, solana.SystemProgramID, ix.program)
	require.Len(t, ix.data, 12)
	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(ix.data[:4]))
	return binary.LittleEndian.Uint64(ix.data[4:])
}

// tokenTransferAmount decodes an SPL Transfer instruction amount
func tokenTransferAmount(t *testing.T, ix decodedInstruction) uint64 {
	t.Helper()
	require.Len(t, ix.data, 9)
	require.Equal(t, byte(3), ix.data[0])
	return binary.LittleEndian.Uint64(ix.data[1:])
}
