package evm

import (
	"context"
	"math"
	"math/big"
	"time"

	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/pkg/errors"
)

// GetNetworkConditions returns a live snapshot of gas price, chain height,
// block time, account balance and the derived congestion score.
//
// Parameters:
// - ctx: the context for managing the request.
//
// Returns:
// - *types.NetworkConditions: the snapshot.
// - error: an error if any of the underlying RPC calls fail.
func (a *Adapter) GetNetworkConditions(ctx context.Context) (*types.NetworkConditions, error) {
	ledger, err := a.getLedger()
	if err != nil {
		return nil, err
	}

	gasPrice, err := ledger.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gas price")
	}

	height, err := ledger.BlockNumber(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get block number")
	}

	latest, err := ledger.BlockByNumber(ctx, height, false)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get block %d", height)
	}

	blockTime := a.config.ExpectedBlockTime
	if height > 0 {
		previous, err := ledger.BlockByNumber(ctx, height-1, false)
		if err == nil && latest.Timestamp.After(previous.Timestamp) {
			blockTime = latest.Timestamp.Sub(previous.Timestamp)
		}
	}

	balance, err := ledger.BalanceAt(ctx, a.address)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account balance")
	}

	score := a.congestionScore(gasPrice, latest, blockTime)

	return &types.NetworkConditions{
		GasPrice:        gasPrice,
		BlockHeight:     height,
		BlockTime:       blockTime,
		Balance:         balance,
		CongestionScore: score,
		CongestionLevel: a.congestionLevel(score),
	}, nil
}

// congestionScore combines gas-price deviation from the configured baseline,
// block gas utilization and block-time deviation from the expected interval
// using the variant's weights.
func (a *Adapter) congestionScore(gasPrice *big.Int, latest *types.Block, blockTime time.Duration) float64 {
	gasComponent := gasDeviationScore(gasPrice, a.config.BaseGasPrice)
	utilization := clampScore(latest.Utilization() * 100)

	var blockTimeComponent float64
	if expected := a.config.ExpectedBlockTime; expected > 0 {
		deviation := math.Abs(float64(blockTime-expected)) / float64(expected)
		blockTimeComponent = clampScore(deviation * 100)
	}

	return clampScore(a.tuning.GasDeviationWeight*gasComponent +
		a.tuning.UtilizationWeight*utilization +
		a.tuning.BlockTimeWeight*blockTimeComponent)
}

func (a *Adapter) congestionLevel(score float64) types.CongestionLevel {
	switch {
	case score >= a.tuning.CongestionHigh:
		return types.CongestionHigh
	case score >= a.tuning.CongestionMedium:
		return types.CongestionMedium
	default:
		return types.CongestionLow
	}
}

// gasDeviationScore maps the live-vs-base gas price ratio onto [0,100]; a
// live price at double the baseline saturates the component.
func gasDeviationScore(live, base *big.Int) float64 {
	if base == nil || base.Sign() == 0 || live == nil {
		return 0
	}
	ratio, _ := new(big.Float).Quo(new(big.Float).SetInt(live), new(big.Float).SetInt(base)).Float64()
	if ratio <= 1 {
		return 0
	}
	return clampScore((ratio - 1) * 100)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
