package evm

import (
	"context"
	"math/big"

	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/pkg/errors"
)

// GetGasOverrides computes adjusted gas settings for the next submission:
// the configured base price is scaled up when the live gas price exceeds it
// by the tuning's multiples, scaled up again under MEV pressure, and finally
// clamped to the network's gas floor so submissions are never orphaned by
// underpricing.
//
// Parameters:
// - ctx: the context for managing the request.
//
// Returns:
// - *types.GasOverrides: the adjusted gas price and limit.
// - error: an error if the live gas price cannot be fetched.
func (a *Adapter) GetGasOverrides(ctx context.Context) (*types.GasOverrides, error) {
	ledger, err := a.getLedger()
	if err != nil {
		return nil, err
	}

	live, err := ledger.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get live gas price")
	}

	price := new(big.Int).Set(a.config.BaseGasPrice)

	switch {
	case exceedsMultiple(live, a.config.BaseGasPrice, 4, 1):
		price = bumpPercent(price, a.tuning.GasBumpExtreme)
	case exceedsMultiple(live, a.config.BaseGasPrice, 2, 1):
		price = bumpPercent(price, a.tuning.GasBumpHigh)
	case exceedsMultiple(live, a.config.BaseGasPrice, 3, 2):
		price = bumpPercent(price, a.tuning.GasBumpModerate)
	}

	score := a.mevScore()
	switch {
	case score > a.tuning.MevScoreHigh:
		price = bumpPercent(price, a.tuning.MevBumpHigh)
	case score > a.tuning.MevScoreLow:
		price = bumpPercent(price, a.tuning.MevBumpLow)
	}

	// A submission below the live market price would sit in the mempool for
	// the whole measurement window; take the live price as a second floor.
	if price.Cmp(live) < 0 {
		price.Set(live)
	}
	if price.Cmp(a.config.GasFloor) < 0 {
		price.Set(a.config.GasFloor)
	}

	return &types.GasOverrides{
		GasPrice: price,
		GasLimit: a.config.GasLimit,
	}, nil
}

// exceedsMultiple reports whether value > base * num/den without leaving
// integer arithmetic.
func exceedsMultiple(value, base *big.Int, num, den int64) bool {
	left := new(big.Int).Mul(value, big.NewInt(den))
	right := new(big.Int).Mul(base, big.NewInt(num))
	return left.Cmp(right) > 0
}

// bumpPercent returns value * (100+pct) / 100.
func bumpPercent(value *big.Int, pct int64) *big.Int {
	bumped := new(big.Int).Mul(value, big.NewInt(100+pct))
	return bumped.Div(bumped, big.NewInt(100))
}
