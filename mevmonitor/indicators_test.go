package mevmonitor

import (
	"math/big"
	"testing"

	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
)

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func blockWithPrices(prices ...int64) *types.Block {
	txs := make([]types.BlockTransaction, 0, len(prices))
	for i, p := range prices {
		txs = append(txs, types.BlockTransaction{
			Hash:     common.BigToHash(big.NewInt(int64(i))),
			GasPrice: gwei(p),
			Gas:      21_000,
			Value:    big.NewInt(0),
		})
	}
	return &types.Block{Number: 100, GasUsed: 15_000_000, GasLimit: 30_000_000, Transactions: txs}
}

func TestCombineScoreStaysInRange(t *testing.T) {
	weights := DefaultWeights()
	vectors := []types.MevIndicators{
		{},
		{GasVariance: 100, HighGasShare: 100, BotActivity: 100, Arbitrage: 100, Sandwich: 100, Liquidation: 100, GasCompetition: 100, DexVolume: 100},
		{GasVariance: 50, BotActivity: 80},
		{Sandwich: 100},
	}

	for i, ind := range vectors {
		score := CombineScore(ind, weights)
		if score < 0 || score > 100 {
			t.Errorf("vector %d: score %v outside [0,100]", i, score)
		}
	}

	full := CombineScore(types.MevIndicators{
		GasVariance: 100, HighGasShare: 100, BotActivity: 100, Arbitrage: 100,
		Sandwich: 100, Liquidation: 100, GasCompetition: 100, DexVolume: 100,
	}, weights)
	if full != 100 {
		t.Errorf("expected all-max indicators to combine to 100, got %v", full)
	}
}

func TestComputeIndicatorsEmptyBlock(t *testing.T) {
	ind := ComputeIndicators(&types.Block{}, DefaultIndicatorConfig())
	if ind != (types.MevIndicators{}) {
		t.Errorf("expected zero indicators for empty block, got %+v", ind)
	}
	if got := ComputeIndicators(nil, DefaultIndicatorConfig()); got != (types.MevIndicators{}) {
		t.Errorf("expected zero indicators for nil block, got %+v", got)
	}
}

func TestSandwichTripletDetected(t *testing.T) {
	cfg := DefaultIndicatorConfig()

	flat := ComputeIndicators(blockWithPrices(20, 20, 20, 20, 20), cfg)
	if flat.Sandwich != 0 {
		t.Errorf("flat gas prices should not look like a sandwich, got %v", flat.Sandwich)
	}

	// 80-20-80 is a clear high-low-high triplet.
	sandwiched := ComputeIndicators(blockWithPrices(20, 80, 20, 80, 20), cfg)
	if sandwiched.Sandwich <= 0 {
		t.Errorf("expected sandwich pattern to score above zero, got %v", sandwiched.Sandwich)
	}
}

func TestHighGasShare(t *testing.T) {
	cfg := DefaultIndicatorConfig()

	// Median 20 gwei, threshold 30; two of five transactions above it.
	ind := ComputeIndicators(blockWithPrices(20, 20, 20, 50, 60), cfg)
	want := 40.0
	if ind.HighGasShare != want {
		t.Errorf("expected high gas share %v, got %v", want, ind.HighGasShare)
	}
}

func TestBotActivity(t *testing.T) {
	bot := common.HexToAddress("0x00000000000000000000000000000000000000b0")
	cfg := DefaultIndicatorConfig()
	cfg.BotAddresses = map[common.Address]bool{bot: true}

	block := blockWithPrices(20, 20, 20, 20)
	block.Transactions[1].To = bot

	ind := ComputeIndicators(block, cfg)
	if ind.BotActivity != 25 {
		t.Errorf("expected bot activity 25, got %v", ind.BotActivity)
	}
}

func TestGasCompetitionSaturates(t *testing.T) {
	cfg := DefaultIndicatorConfig()

	// Top at 5x median saturates the indicator.
	ind := ComputeIndicators(blockWithPrices(20, 20, 20, 20, 100), cfg)
	if ind.GasCompetition != 100 {
		t.Errorf("expected gas competition 100, got %v", ind.GasCompetition)
	}

	calm := ComputeIndicators(blockWithPrices(20, 20, 20), cfg)
	if calm.GasCompetition != 0 {
		t.Errorf("expected gas competition 0 for uniform prices, got %v", calm.GasCompetition)
	}
}

func TestArbitrageRepeatedValues(t *testing.T) {
	cfg := DefaultIndicatorConfig()

	block := blockWithPrices(20, 20, 20, 20)
	block.Transactions[0].Value = big.NewInt(777)
	block.Transactions[2].Value = big.NewInt(777)

	ind := ComputeIndicators(block, cfg)
	if ind.Arbitrage != 50 {
		t.Errorf("expected arbitrage 50 for two repeated values of four txs, got %v", ind.Arbitrage)
	}
}
