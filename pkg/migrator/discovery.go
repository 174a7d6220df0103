package migrator

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/speedrun-hq/liberator/pkg/metrics"
	"github.com/speedrun-hq/liberator/pkg/models"
)

// Discover builds the worklist of owner: positive token holdings of both token
// programs in query order, then the native balance if it is not zero.
// Query errors are returned as is; there are no retries at this layer.
func Discover(ctx context.Context, chain Chain, owner solana.PublicKey) (models.Worklist, error) {
	var holdings []models.TokenHolding
	for _, ns := range models.Namespaces {
		found, err := chain.GetHoldings(ctx, owner, ns)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s accounts: %w", ns, err)
		}
		for _, holding := range found {
			if holding.DisplayAmount.IsPositive() {
				holdings = append(holdings, holding)
			}
		}
	}

	balance, err := chain.GetNativeBalance(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get native balance: %w", err)
	}

	worklist := models.NewWorklist(holdings, balance)
	if len(worklist) == 0 {
		return nil, ErrNothingToMigrate
	}

	metrics.AssetsDiscovered.WithLabelValues(string(models.AssetToken)).Add(float64(worklist.TokenCount()))
	if balance > 0 {
		metrics.AssetsDiscovered.WithLabelValues(string(models.AssetNative)).Inc()
	}
	return worklist, nil
}
