package migrator

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/liberator/pkg/models"
)

func TestDiscoverFiltersAndOrders(t *testing.T) {
	chain := newFakeChain()
	dust := tokenHolding(models.Legacy, 0, 9)
	legacy := tokenHolding(models.Legacy, 5, 0)
	extended := tokenHolding(models.Extended, 7, 2)
	chain.holdings[models.Legacy] = []models.TokenHolding{dust, legacy}
	chain.holdings[models.Extended] = []models.TokenHolding{extended}
	chain.balances = []uint64{1}

	worklist, err := Discover(context.Background(), chain, solana.NewWallet().PublicKey())
	require.NoError(t, err)

	require.Len(t, worklist, 3)
	assert.Equal(t, legacy.Mint, worklist[0].Holding.Mint)
	assert.Equal(t, extended.Mint, worklist[1].Holding.Mint)
	assert.True(t, worklist[2].IsNative())
	assert.Equal(t, uint64(1), worklist[2].NativeAmount)
	assert.Equal(t, []string{"getHoldings:token", "getHoldings:token-2022", "getBalance"}, chain.calls)
}

func TestDiscoverPropagatesErrors(t *testing.T) {
	chain := newFakeChain()
	boom := errors.New("boom")
	chain.balanceErrs = []error{boom}

	_, err := Discover(context.Background(), chain, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, chain.balanceCalls, "no retries during discovery")
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Destination wallet cannot be the same as the source wallet.", UserMessage(ErrSameWallet))
	assert.Equal(t, "node is behind", UserMessage(errors.New("node is behind")))
}
