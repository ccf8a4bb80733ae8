package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// CostBreakdown splits the cost of a measured transaction. All amounts are
// wei-denominated integers; cost math never uses floating point.
//
// Fields:
// - BaseCost: gas used priced at the network's configured base gas price.
// - GasPremium: extra cost from paying above the base gas price.
// - MevPremium: estimated extra cost attributable to MEV pressure.
type CostBreakdown struct {
	BaseCost   *big.Int
	GasPremium *big.Int
	MevPremium *big.Int
}

// Total returns the sum of all cost components in wei.
func (c CostBreakdown) Total() *big.Int {
	total := new(big.Int)
	if c.BaseCost != nil {
		total.Add(total, c.BaseCost)
	}
	if c.GasPremium != nil {
		total.Add(total, c.GasPremium)
	}
	if c.MevPremium != nil {
		total.Add(total, c.MevPremium)
	}
	return total
}

// FinalityMeasurement records one finality measurement for one submitted
// transaction. It is created by an adapter's MeasureFinality and immutable
// once returned.
//
// Fields:
// - ID: unique measurement identifier.
// - Network: the name of the measured network.
// - TxHash: the measured transaction.
// - StartedAt: when the measurement began.
// - BaseThreshold: the confirmation target before MEV adjustment.
// - AdjustedThreshold: the confirmation target after MEV adjustment,
//   always >= BaseThreshold.
// - InitialConfirmation: elapsed time to the first confirmation.
// - FullFinality: elapsed time to the adjusted confirmation target.
// - MevAtStart: MEV conditions sampled when the measurement began.
// - MevAtEnd: MEV conditions sampled when the measurement finished.
// - Reorged: true when a reorganization affected the observed block.
// - Reorg: details of the reorganization, nil when Reorged is false.
// - Cost: cost breakdown for the transaction.
// - Success: false when the measurement failed; Error carries the detail.
// - Error: failure detail, empty on success.
type FinalityMeasurement struct {
	ID                  string
	Network             string
	TxHash              common.Hash
	StartedAt           time.Time
	BaseThreshold       uint64
	AdjustedThreshold   uint64
	InitialConfirmation time.Duration
	FullFinality        time.Duration
	MevAtStart          *MevConditions
	MevAtEnd            *MevConditions
	Reorged             bool
	Reorg               *ReorgEvent
	Cost                CostBreakdown
	Success             bool
	Error               string
}
