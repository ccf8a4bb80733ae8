package evm

import (
	"context"
	"math/big"
	"time"

	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ClipFinance/finality-lib/timer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AdjustThresholdForMev raises a confirmation target according to the
// current MEV pressure score: quiet networks keep the base target, while
// scores of 40, 60 and 80 add 2, 5 and 8 confirmations respectively.
//
// Parameters:
// - base: the confirmation target before adjustment.
// - score: the MEV pressure score in [0,100].
//
// Returns:
// - uint64: the adjusted confirmation target, always >= base.
func AdjustThresholdForMev(base uint64, score float64) uint64 {
	switch {
	case score >= 80:
		return base + 8
	case score >= 60:
		return base + 5
	case score >= 40:
		return base + 2
	default:
		return base
	}
}

// MeasureFinality measures the time for the transaction to reach its
// MEV-adjusted confirmation threshold. The base target is widened by the
// current MEV score, the initial confirmation and the full finality are
// timed separately, and the inclusion block is re-checked for a
// reorganization once the wait completes.
//
// Failed waits produce a failed measurement rather than an error so a
// campaign can continue past individual transactions; the error return is
// reserved for unusable adapter state.
//
// Parameters:
// - ctx: the context for managing the request.
// - txHash: the transaction to measure.
// - baseThreshold: the confirmation target before MEV adjustment; zero
//   selects the network's configured target.
//
// Returns:
// - *types.FinalityMeasurement: the completed (possibly failed) measurement.
// - error: an error if the adapter is not initialized.
func (a *Adapter) MeasureFinality(ctx context.Context, txHash common.Hash, baseThreshold uint64) (*types.FinalityMeasurement, error) {
	if _, err := a.getLedger(); err != nil {
		return nil, err
	}

	if baseThreshold == 0 {
		baseThreshold = a.config.ConfirmationTarget
	}

	mevAtStart := a.mev.CurrentConditions()
	adjusted := AdjustThresholdForMev(baseThreshold, mevAtStart.Score)

	measurement := &types.FinalityMeasurement{
		ID:                uuid.New().String(),
		Network:           a.config.Name,
		TxHash:            txHash,
		StartedAt:         time.Now(),
		BaseThreshold:     baseThreshold,
		AdjustedThreshold: adjusted,
		MevAtStart:        mevAtStart,
	}

	if adjusted > baseThreshold {
		a.logger.WithFields(logrus.Fields{
			"network":  a.config.Name,
			"txHash":   txHash.Hex(),
			"base":     baseThreshold,
			"adjusted": adjusted,
			"mevScore": mevAtStart.Score,
		}).Info("Confirmation threshold raised for MEV pressure")
	}

	clock := timer.Start()

	receipt, err := a.WaitForConfirmation(ctx, txHash, 1)
	if err != nil {
		measurement.Error = err.Error()
		measurement.MevAtEnd = a.mev.CurrentConditions()
		a.recordFailure(adjusted > baseThreshold)
		return measurement, nil
	}
	measurement.InitialConfirmation = clock.Elapsed()

	result, waitErr := a.detector.WaitForFinality(ctx, txHash, adjusted)
	measurement.FullFinality = clock.Elapsed()
	if result != nil && result.Receipt != nil {
		receipt = result.Receipt
	}

	if event, reorgErr := a.reorg.DetectReorganization(ctx, txHash, receipt.BlockNumber); reorgErr == nil && event != nil {
		measurement.Reorged = true
		measurement.Reorg = event
	}

	measurement.MevAtEnd = a.mev.CurrentConditions()
	measurement.Cost = a.costBreakdown(receipt, measurement.MevAtEnd.Score)

	if waitErr != nil {
		measurement.Error = waitErr.Error()
		a.recordFailure(adjusted > baseThreshold)
		return measurement, nil
	}

	measurement.Success = true
	a.recordSuccess(measurement.FullFinality, adjusted > baseThreshold)

	a.logger.WithFields(logrus.Fields{
		"network":       a.config.Name,
		"txHash":        txHash.Hex(),
		"confirmations": result.Confirmations,
		"fullFinality":  measurement.FullFinality,
		"reorged":       measurement.Reorged,
	}).Info("Finality measurement completed")

	return measurement, nil
}

// costBreakdown splits the realized transaction cost into the base cost at
// the configured gas price, the premium paid above it and the share of that
// premium attributed to MEV pressure. Scores at or below 50 attribute
// nothing; a score of 100 attributes the whole premium.
func (a *Adapter) costBreakdown(receipt *types.Receipt, mevScore float64) types.CostBreakdown {
	gasUsed := new(big.Int).SetUint64(receipt.GasUsed)

	baseCost := new(big.Int).Mul(gasUsed, a.config.BaseGasPrice)

	premium := new(big.Int)
	if receipt.EffectiveGasPrice != nil && receipt.EffectiveGasPrice.Cmp(a.config.BaseGasPrice) > 0 {
		perGas := new(big.Int).Sub(receipt.EffectiveGasPrice, a.config.BaseGasPrice)
		premium.Mul(gasUsed, perGas)
	}

	mevPremium := new(big.Int)
	if mevScore > 50 {
		share := int64((mevScore - 50) * 2) // percent of the premium, capped below
		if share > 100 {
			share = 100
		}
		mevPremium.Mul(premium, big.NewInt(share))
		mevPremium.Div(mevPremium, big.NewInt(100))
	}

	return types.CostBreakdown{
		BaseCost:   baseCost,
		GasPremium: new(big.Int).Sub(premium, mevPremium),
		MevPremium: mevPremium,
	}
}
