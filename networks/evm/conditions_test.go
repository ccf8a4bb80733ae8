package evm

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ClipFinance/finality-lib/common/types"
)

func conditionsTuning() Tuning {
	tuning := testTuning()
	tuning.BaseGasPrice = gwei(30)
	tuning.ExpectedBlockTime = 2 * time.Second
	tuning.GasDeviationWeight = 0.5
	tuning.UtilizationWeight = 0.3
	tuning.BlockTimeWeight = 0.2
	tuning.CongestionMedium = 40
	tuning.CongestionHigh = 70
	return tuning
}

func TestCongestionScoreComposition(t *testing.T) {
	adapter := newTestAdapter(&fakeChain{}, conditionsTuning())

	// 1.5x the base gas price contributes 50, half utilization contributes
	// 50 and an on-schedule block contributes nothing.
	latest := &types.Block{GasUsed: 15_000_000, GasLimit: 30_000_000}
	got := adapter.congestionScore(gwei(45), latest, 2*time.Second)

	want := 0.5*50 + 0.3*50
	if got < want-0.001 || got > want+0.001 {
		t.Errorf("expected congestion score %v, got %v", want, got)
	}
}

func TestCongestionScoreBlockTimeDeviation(t *testing.T) {
	adapter := newTestAdapter(&fakeChain{}, conditionsTuning())

	// Blocks arriving at double the expected interval contribute a full
	// deviation component.
	latest := &types.Block{GasUsed: 0, GasLimit: 30_000_000}
	got := adapter.congestionScore(gwei(30), latest, 4*time.Second)

	want := 0.2 * 100.0
	if got < want-0.001 || got > want+0.001 {
		t.Errorf("expected congestion score %v, got %v", want, got)
	}
}

func TestGasDeviationScore(t *testing.T) {
	base := gwei(30)

	tests := []struct {
		live *big.Int
		want float64
	}{
		{gwei(15), 0},
		{gwei(30), 0},
		{gwei(45), 50},
		{gwei(60), 100},
		{gwei(300), 100},
	}

	for _, tt := range tests {
		if got := gasDeviationScore(tt.live, base); got != tt.want {
			t.Errorf("gasDeviationScore(%s) = %v, want %v", tt.live, got, tt.want)
		}
	}

	if got := gasDeviationScore(gwei(30), big.NewInt(0)); got != 0 {
		t.Errorf("expected zero score for a zero baseline, got %v", got)
	}
}

func TestCongestionLevel(t *testing.T) {
	adapter := newTestAdapter(&fakeChain{}, conditionsTuning())

	tests := []struct {
		score float64
		want  types.CongestionLevel
	}{
		{0, types.CongestionLow},
		{39.9, types.CongestionLow},
		{40, types.CongestionMedium},
		{69.9, types.CongestionMedium},
		{70, types.CongestionHigh},
		{100, types.CongestionHigh},
	}

	for _, tt := range tests {
		if got := adapter.congestionLevel(tt.score); got != tt.want {
			t.Errorf("congestionLevel(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestGetNetworkConditions(t *testing.T) {
	chain := &fakeChain{
		head:     100,
		gasPrice: gwei(45),
		balance:  new(big.Int).Mul(big.NewInt(5), big.NewInt(1e18)),
	}
	adapter := newTestAdapter(chain, conditionsTuning())

	conditions, err := adapter.GetNetworkConditions(context.Background())
	if err != nil {
		t.Fatalf("GetNetworkConditions failed: %v", err)
	}

	if conditions.BlockHeight != 100 {
		t.Errorf("expected height 100, got %d", conditions.BlockHeight)
	}
	if conditions.BlockTime != 2*time.Second {
		t.Errorf("expected 2s block time from consecutive timestamps, got %v", conditions.BlockTime)
	}
	if conditions.GasPrice.Cmp(gwei(45)) != 0 {
		t.Errorf("expected 45 gwei, got %s", conditions.GasPrice)
	}
	if conditions.Balance.Cmp(chain.balance) != 0 {
		t.Errorf("expected the scripted balance, got %s", conditions.Balance)
	}
	if conditions.CongestionLevel != types.CongestionMedium {
		t.Errorf("expected medium congestion, got %v (score %v)",
			conditions.CongestionLevel, conditions.CongestionScore)
	}
}
