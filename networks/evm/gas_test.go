package evm

import (
	"context"
	"math/big"
	"testing"
)

func TestGetGasOverridesCalmMarket(t *testing.T) {
	chain := &fakeChain{gasPrice: gwei(20)}
	adapter := newTestAdapter(chain, testTuning())

	overrides, err := adapter.GetGasOverrides(context.Background())
	if err != nil {
		t.Fatalf("GetGasOverrides failed: %v", err)
	}
	if overrides.GasPrice.Cmp(gwei(20)) != 0 {
		t.Errorf("expected the base price 20 gwei, got %s", overrides.GasPrice)
	}
	if overrides.GasLimit != adapter.config.GasLimit {
		t.Errorf("expected gas limit %d, got %d", adapter.config.GasLimit, overrides.GasLimit)
	}
}

func TestGetGasOverridesBelowBaseKeepsBase(t *testing.T) {
	chain := &fakeChain{gasPrice: gwei(10)}
	adapter := newTestAdapter(chain, testTuning())

	overrides, err := adapter.GetGasOverrides(context.Background())
	if err != nil {
		t.Fatalf("GetGasOverrides failed: %v", err)
	}
	if overrides.GasPrice.Cmp(gwei(20)) != 0 {
		t.Errorf("expected the configured base price, got %s", overrides.GasPrice)
	}
}

func TestGetGasOverridesLivePriceFloor(t *testing.T) {
	// 2.5x the base: the high bump lands below the live price, so the live
	// price wins as the second floor.
	chain := &fakeChain{gasPrice: gwei(50)}
	adapter := newTestAdapter(chain, testTuning())

	overrides, err := adapter.GetGasOverrides(context.Background())
	if err != nil {
		t.Fatalf("GetGasOverrides failed: %v", err)
	}
	if overrides.GasPrice.Cmp(gwei(50)) != 0 {
		t.Errorf("expected the live price 50 gwei, got %s", overrides.GasPrice)
	}
}

func TestGetGasOverridesGasFloorClamp(t *testing.T) {
	tuning := testTuning()
	tuning.BaseGasPrice = gwei(10)
	tuning.GasFloor = gwei(25)

	chain := &fakeChain{gasPrice: gwei(1)}
	adapter := newTestAdapter(chain, tuning)

	overrides, err := adapter.GetGasOverrides(context.Background())
	if err != nil {
		t.Fatalf("GetGasOverrides failed: %v", err)
	}
	if overrides.GasPrice.Cmp(gwei(25)) != 0 {
		t.Errorf("expected the gas floor 25 gwei, got %s", overrides.GasPrice)
	}
}

func TestExceedsMultiple(t *testing.T) {
	base := gwei(20)

	tests := []struct {
		value    *big.Int
		num, den int64
		want     bool
	}{
		{gwei(30), 3, 2, false}, // exactly 1.5x is not an exceedance
		{gwei(31), 3, 2, true},
		{gwei(40), 2, 1, false},
		{gwei(41), 2, 1, true},
		{gwei(81), 4, 1, true},
	}

	for _, tt := range tests {
		if got := exceedsMultiple(tt.value, base, tt.num, tt.den); got != tt.want {
			t.Errorf("exceedsMultiple(%s, %s, %d/%d) = %v, want %v",
				tt.value, base, tt.num, tt.den, got, tt.want)
		}
	}
}

func TestBumpPercent(t *testing.T) {
	if got := bumpPercent(gwei(20), 25); got.Cmp(gwei(25)) != 0 {
		t.Errorf("expected 25 gwei, got %s", got)
	}
	if got := bumpPercent(big.NewInt(100), 0); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected unchanged value, got %s", got)
	}
}
