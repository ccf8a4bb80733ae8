package evm

import (
	"math/big"
	"time"

	"github.com/ClipFinance/finality-lib/common/types"
)

// Tuning holds the per-network constants that distinguish adapter variants:
// gas formulas, congestion-score weights and thresholds, retry behavior and
// which error substrings count as retryable.
type Tuning struct {
	Network            string
	Class              types.NetworkClass
	ChainID            uint64
	BaseGasPrice       *big.Int
	GasFloor           *big.Int
	GasLimit           uint64
	ConfirmationTarget uint64
	MevBaseline        float64
	ExpectedBlockTime  time.Duration

	// Congestion score composition. The weights sum to 1.0.
	GasDeviationWeight float64
	UtilizationWeight  float64
	BlockTimeWeight    float64
	CongestionMedium   float64
	CongestionHigh     float64

	// Gas override policy: percentage bumps applied when the live gas price
	// exceeds the configured base by the given multiples, and when the MEV
	// score crosses its bands.
	GasBumpModerate int64 // live > 1.5x base
	GasBumpHigh     int64 // live > 2x base
	GasBumpExtreme  int64 // live > 4x base
	MevScoreLow     float64
	MevScoreHigh    float64
	MevBumpLow      int64
	MevBumpHigh     int64

	Retry               types.RetryConfig
	RetryableSubstrings []string
	Timeout             time.Duration
}

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func mgwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000))
}

// defaultRetryable lists the error substrings every EVM variant treats as
// transient: connectivity, nonce races, fee replacement and generic RPC
// server failures.
var defaultRetryable = []string{
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"eof",
	"nonce too low",
	"nonce has already been used",
	"replacement transaction underpriced",
	"transaction underpriced",
	"server error",
	"502",
	"503",
	"too many requests",
}

// knownNetworks maps network names to their tunings. The Ethereum variant is
// tuned for L1-scale gas and long confirmation targets; the L2-style
// variants use far smaller base gas prices, shorter targets and faster,
// smaller backoff.
var knownNetworks = map[string]Tuning{
	"ethereum": {
		Network:            "ethereum",
		Class:              types.ClassL1,
		ChainID:            1,
		BaseGasPrice:       gwei(30),
		GasFloor:           gwei(1),
		GasLimit:           21_000,
		ConfirmationTarget: 12,
		MevBaseline:        40,
		ExpectedBlockTime:  12 * time.Second,
		GasDeviationWeight: 0.35,
		UtilizationWeight:  0.40,
		BlockTimeWeight:    0.25,
		CongestionMedium:   40,
		CongestionHigh:     70,
		GasBumpModerate:    10,
		GasBumpHigh:        25,
		GasBumpExtreme:     50,
		MevScoreLow:        50,
		MevScoreHigh:       70,
		MevBumpLow:         10,
		MevBumpHigh:        25,
		Retry: types.RetryConfig{
			MaxRetries:        5,
			BaseDelay:         2 * time.Second,
			MaxDelay:          30 * time.Second,
			BackoffMultiplier: 2.0,
		},
		RetryableSubstrings: defaultRetryable,
		Timeout:             5 * time.Minute,
	},
	"polygon": {
		Network:            "polygon",
		Class:              types.ClassL2,
		ChainID:            137,
		BaseGasPrice:       gwei(35),
		GasFloor:           gwei(25), // protocol-enforced minimum priority fee
		GasLimit:           21_000,
		ConfirmationTarget: 10,
		MevBaseline:        30,
		ExpectedBlockTime:  2 * time.Second,
		GasDeviationWeight: 0.30,
		UtilizationWeight:  0.50,
		BlockTimeWeight:    0.20,
		CongestionMedium:   45,
		CongestionHigh:     75,
		GasBumpModerate:    10,
		GasBumpHigh:        20,
		GasBumpExtreme:     40,
		MevScoreLow:        50,
		MevScoreHigh:       70,
		MevBumpLow:         5,
		MevBumpHigh:        15,
		Retry: types.RetryConfig{
			MaxRetries:        4,
			BaseDelay:         500 * time.Millisecond,
			MaxDelay:          5 * time.Second,
			BackoffMultiplier: 1.5,
		},
		RetryableSubstrings: defaultRetryable,
		Timeout:             2 * time.Minute,
	},
	"arbitrum": {
		Network:            "arbitrum",
		Class:              types.ClassL2,
		ChainID:            42161,
		BaseGasPrice:       mgwei(100), // 0.1 gwei
		GasFloor:           mgwei(10),
		GasLimit:           50_000, // L2 gas accounting charges for L1 data
		ConfirmationTarget: 3,
		MevBaseline:        15,
		ExpectedBlockTime:  250 * time.Millisecond,
		GasDeviationWeight: 0.30,
		UtilizationWeight:  0.45,
		BlockTimeWeight:    0.25,
		CongestionMedium:   50,
		CongestionHigh:     80,
		GasBumpModerate:    10,
		GasBumpHigh:        15,
		GasBumpExtreme:     30,
		MevScoreLow:        50,
		MevScoreHigh:       70,
		MevBumpLow:         5,
		MevBumpHigh:        10,
		Retry: types.RetryConfig{
			MaxRetries:        4,
			BaseDelay:         250 * time.Millisecond,
			MaxDelay:          2 * time.Second,
			BackoffMultiplier: 1.5,
		},
		RetryableSubstrings: defaultRetryable,
		Timeout:             time.Minute,
	},
	"base": {
		Network:            "base",
		Class:              types.ClassL2,
		ChainID:            8453,
		BaseGasPrice:       mgwei(50), // 0.05 gwei
		GasFloor:           mgwei(5),
		GasLimit:           21_000,
		ConfirmationTarget: 6,
		MevBaseline:        20,
		ExpectedBlockTime:  2 * time.Second,
		GasDeviationWeight: 0.30,
		UtilizationWeight:  0.50,
		BlockTimeWeight:    0.20,
		CongestionMedium:   45,
		CongestionHigh:     75,
		GasBumpModerate:    10,
		GasBumpHigh:        20,
		GasBumpExtreme:     35,
		MevScoreLow:        50,
		MevScoreHigh:       70,
		MevBumpLow:         5,
		MevBumpHigh:        10,
		Retry: types.RetryConfig{
			MaxRetries:        4,
			BaseDelay:         500 * time.Millisecond,
			MaxDelay:          4 * time.Second,
			BackoffMultiplier: 1.5,
		},
		RetryableSubstrings: defaultRetryable,
		Timeout:             90 * time.Second,
	},
}

// genericTuning is the fallback for networks without a dedicated entry.
var genericTuning = Tuning{
	Network:            "evm",
	Class:              types.ClassL1,
	BaseGasPrice:       gwei(20),
	GasFloor:           gwei(1),
	GasLimit:           21_000,
	ConfirmationTarget: 6,
	MevBaseline:        25,
	ExpectedBlockTime:  12 * time.Second,
	GasDeviationWeight: 0.35,
	UtilizationWeight:  0.40,
	BlockTimeWeight:    0.25,
	CongestionMedium:   40,
	CongestionHigh:     70,
	GasBumpModerate:    10,
	GasBumpHigh:        25,
	GasBumpExtreme:     50,
	MevScoreLow:        50,
	MevScoreHigh:       70,
	MevBumpLow:         10,
	MevBumpHigh:        20,
	Retry: types.RetryConfig{
		MaxRetries:        5,
		BaseDelay:         time.Second,
		MaxDelay:          15 * time.Second,
		BackoffMultiplier: 2.0,
	},
	RetryableSubstrings: defaultRetryable,
	Timeout:             3 * time.Minute,
}

// TuningFor returns the tuning for a known network, or the generic EVM
// tuning carrying the requested name.
func TuningFor(network string) Tuning {
	if tuning, ok := knownNetworks[network]; ok {
		return tuning
	}
	tuning := genericTuning
	tuning.Network = network
	return tuning
}

// KnownNetworks returns the names of the networks with dedicated tunings.
func KnownNetworks() []string {
	names := make([]string, 0, len(knownNetworks))
	for name := range knownNetworks {
		names = append(names, name)
	}
	return names
}

// mergeConfig overlays the set fields of an override onto a tuning-derived
// base configuration, so callers can pin just an RPC endpoint or a custom
// gas table without restating every field.
func mergeConfig(base, override *types.NetworkConfig) *types.NetworkConfig {
	merged := *base

	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.Class != "" {
		merged.Class = override.Class
	}
	if override.ChainID != 0 {
		merged.ChainID = override.ChainID
	}
	if override.RpcUrl != "" {
		merged.RpcUrl = override.RpcUrl
	}
	if override.BaseGasPrice != nil {
		merged.BaseGasPrice = new(big.Int).Set(override.BaseGasPrice)
	}
	if override.GasFloor != nil {
		merged.GasFloor = new(big.Int).Set(override.GasFloor)
	}
	if override.GasLimit != 0 {
		merged.GasLimit = override.GasLimit
	}
	if override.ConfirmationTarget != 0 {
		merged.ConfirmationTarget = override.ConfirmationTarget
	}
	if override.MevBaseline != 0 {
		merged.MevBaseline = override.MevBaseline
	}
	if override.ExpectedBlockTime != 0 {
		merged.ExpectedBlockTime = override.ExpectedBlockTime
	}
	if override.Retry.MaxRetries != 0 {
		merged.Retry = override.Retry
	}
	if override.Timeout != 0 {
		merged.Timeout = override.Timeout
	}

	return &merged
}

// NetworkConfig materializes an immutable adapter configuration from the
// tuning. Big integers are copied so adapters never share amount values.
func (t Tuning) NetworkConfig(rpcUrl string) *types.NetworkConfig {
	return &types.NetworkConfig{
		Name:               t.Network,
		Class:              t.Class,
		ChainID:            t.ChainID,
		RpcUrl:             rpcUrl,
		BaseGasPrice:       new(big.Int).Set(t.BaseGasPrice),
		GasFloor:           new(big.Int).Set(t.GasFloor),
		GasLimit:           t.GasLimit,
		ConfirmationTarget: t.ConfirmationTarget,
		MevBaseline:        t.MevBaseline,
		ExpectedBlockTime:  t.ExpectedBlockTime,
		Retry:              t.Retry,
		Timeout:            t.Timeout,
	}
}
