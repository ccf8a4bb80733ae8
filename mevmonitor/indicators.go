package mevmonitor

import (
	"math"
	"math/big"
	"sort"

	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
)

// Weights holds the indicator weights used to combine the eight per-block
// indicators into a single score. The defaults sum to 1.0; custom weights
// should too, since the combined score is clamped but not renormalized.
type Weights struct {
	GasVariance    float64 `yaml:"gas_variance"`
	HighGasShare   float64 `yaml:"high_gas_share"`
	BotActivity    float64 `yaml:"bot_activity"`
	Arbitrage      float64 `yaml:"arbitrage"`
	Sandwich       float64 `yaml:"sandwich"`
	Liquidation    float64 `yaml:"liquidation"`
	GasCompetition float64 `yaml:"gas_competition"`
	DexVolume      float64 `yaml:"dex_volume"`
}

// DefaultWeights returns the standard indicator weighting.
func DefaultWeights() Weights {
	return Weights{
		GasVariance:    0.20,
		HighGasShare:   0.15,
		BotActivity:    0.25,
		Arbitrage:      0.15,
		Sandwich:       0.10,
		Liquidation:    0.05,
		GasCompetition: 0.05,
		DexVolume:      0.05,
	}
}

// IndicatorConfig holds the tunable constants behind the per-block
// indicators. All values are empirically chosen heuristics, kept
// configurable rather than hard-coded.
//
// Fields:
// - GasVarianceNorm: gas price standard deviation in gwei that maps to 100.
// - HighGasMultiplier: multiple of the block median gas price above which a
//   transaction counts as high-gas.
// - RepeatedValueMin: minimum occurrences of an identical nonzero transfer
//   value for the arbitrage heuristic.
// - SandwichSpreadRatio: outer-vs-inner gas price ratio for the
//   high-low-high sandwich triplet heuristic.
// - DexGasLimitMin: minimum gas limit for a value transfer to count toward
//   the DEX volume proxy.
// - BotAddresses: known extraction-bot addresses.
// - LendingAddresses: known lending-protocol addresses.
type IndicatorConfig struct {
	GasVarianceNorm     float64
	HighGasMultiplier   float64
	RepeatedValueMin    int
	SandwichSpreadRatio float64
	DexGasLimitMin      uint64
	BotAddresses        map[common.Address]bool
	LendingAddresses    map[common.Address]bool
}

// DefaultIndicatorConfig returns indicator constants suitable for an
// L1-scale gas market.
func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		GasVarianceNorm:     50,
		HighGasMultiplier:   1.5,
		RepeatedValueMin:    2,
		SandwichSpreadRatio: 1.3,
		DexGasLimitMin:      150_000,
	}
}

// ComputeIndicators derives the eight indicator values from block contents.
// A block without transactions yields all-zero indicators.
func ComputeIndicators(block *types.Block, cfg IndicatorConfig) types.MevIndicators {
	if block == nil || len(block.Transactions) == 0 {
		return types.MevIndicators{}
	}

	prices := gasPricesGwei(block.Transactions)
	med := medianOf(prices)

	return types.MevIndicators{
		GasVariance:    gasVarianceScore(prices, cfg.GasVarianceNorm),
		HighGasShare:   highGasShareScore(prices, med, cfg.HighGasMultiplier),
		BotActivity:    botActivityScore(block.Transactions, cfg.BotAddresses),
		Arbitrage:      arbitrageScore(block.Transactions, cfg.RepeatedValueMin),
		Sandwich:       sandwichScore(prices, cfg.SandwichSpreadRatio),
		Liquidation:    liquidationScore(block.Transactions, prices, med, cfg),
		GasCompetition: gasCompetitionScore(prices, med),
		DexVolume:      dexVolumeScore(block.Transactions, cfg.DexGasLimitMin),
	}
}

// CombineScore computes the weighted block score from indicator values,
// clamped to [0,100].
func CombineScore(ind types.MevIndicators, w Weights) float64 {
	score := ind.GasVariance*w.GasVariance +
		ind.HighGasShare*w.HighGasShare +
		ind.BotActivity*w.BotActivity +
		ind.Arbitrage*w.Arbitrage +
		ind.Sandwich*w.Sandwich +
		ind.Liquidation*w.Liquidation +
		ind.GasCompetition*w.GasCompetition +
		ind.DexVolume*w.DexVolume
	return clamp(score)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

var gweiDivisor = new(big.Float).SetInt64(1_000_000_000)

func gasPricesGwei(txs []types.BlockTransaction) []float64 {
	prices := make([]float64, 0, len(txs))
	for _, tx := range txs {
		if tx.GasPrice == nil {
			prices = append(prices, 0)
			continue
		}
		gwei, _ := new(big.Float).Quo(new(big.Float).SetInt(tx.GasPrice), gweiDivisor).Float64()
		prices = append(prices, gwei)
	}
	return prices
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// gasVarianceScore maps the gas price standard deviation onto [0,100] using
// the configured normalization constant.
func gasVarianceScore(prices []float64, norm float64) float64 {
	if len(prices) < 2 || norm <= 0 {
		return 0
	}

	var mean float64
	for _, p := range prices {
		mean += p
	}
	mean /= float64(len(prices))

	var variance float64
	for _, p := range prices {
		diff := p - mean
		variance += diff * diff
	}
	variance /= float64(len(prices))

	return clamp(math.Sqrt(variance) / norm * 100)
}

func highGasShareScore(prices []float64, med float64, multiplier float64) float64 {
	if len(prices) == 0 || med <= 0 {
		return 0
	}
	threshold := med * multiplier
	var high int
	for _, p := range prices {
		if p > threshold {
			high++
		}
	}
	return clamp(float64(high) / float64(len(prices)) * 100)
}

func botActivityScore(txs []types.BlockTransaction, bots map[common.Address]bool) float64 {
	if len(txs) == 0 || len(bots) == 0 {
		return 0
	}
	var touched int
	for _, tx := range txs {
		if bots[tx.From] || bots[tx.To] {
			touched++
		}
	}
	return clamp(float64(touched) / float64(len(txs)) * 100)
}

// arbitrageScore counts transactions sharing an identical nonzero transfer
// value, a cheap proxy for back-and-forth arbitrage legs.
func arbitrageScore(txs []types.BlockTransaction, minRepeats int) float64 {
	if len(txs) == 0 || minRepeats <= 0 {
		return 0
	}

	counts := make(map[string]int)
	for _, tx := range txs {
		if tx.Value == nil || tx.Value.Sign() == 0 {
			continue
		}
		counts[tx.Value.String()]++
	}

	var repeated int
	for _, n := range counts {
		if n >= minRepeats {
			repeated += n
		}
	}
	return clamp(float64(repeated) / float64(len(txs)) * 100)
}

// sandwichScore looks for high-low-high gas price triplets in block order.
func sandwichScore(prices []float64, spreadRatio float64) float64 {
	if len(prices) < 3 || spreadRatio <= 1 {
		return 0
	}

	var patterns int
	for i := 0; i+2 < len(prices); i++ {
		inner := prices[i+1]
		if inner <= 0 {
			continue
		}
		if prices[i] > inner*spreadRatio && prices[i+2] > inner*spreadRatio {
			patterns++
		}
	}
	return clamp(float64(patterns) / float64(len(prices)-2) * 100)
}

func liquidationScore(txs []types.BlockTransaction, prices []float64, med float64, cfg IndicatorConfig) float64 {
	if len(txs) == 0 || len(cfg.LendingAddresses) == 0 || med <= 0 {
		return 0
	}
	threshold := med * cfg.HighGasMultiplier
	var hits int
	for i, tx := range txs {
		if cfg.LendingAddresses[tx.To] && prices[i] > threshold {
			hits++
		}
	}
	return clamp(float64(hits) / float64(len(txs)) * 100)
}

// gasCompetitionScore maps the top-vs-median gas price ratio onto [0,100];
// a top bid at 5x the median saturates the indicator.
func gasCompetitionScore(prices []float64, med float64) float64 {
	if len(prices) == 0 || med <= 0 {
		return 0
	}
	top := prices[0]
	for _, p := range prices {
		if p > top {
			top = p
		}
	}
	ratio := top / med
	if ratio <= 1 {
		return 0
	}
	return clamp((ratio - 1) * 25)
}

func dexVolumeScore(txs []types.BlockTransaction, gasLimitMin uint64) float64 {
	if len(txs) == 0 || gasLimitMin == 0 {
		return 0
	}
	var hits int
	for _, tx := range txs {
		if tx.Gas >= gasLimitMin && tx.Value != nil && tx.Value.Sign() > 0 {
			hits++
		}
	}
	return clamp(float64(hits) / float64(len(txs)) * 100)
}
