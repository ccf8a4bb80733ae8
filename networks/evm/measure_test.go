package evm

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

func TestAdjustThresholdForMev(t *testing.T) {
	tests := []struct {
		score float64
		want  uint64
	}{
		{0, 12},
		{39.9, 12},
		{40, 14},
		{59.9, 14},
		{60, 17},
		{79.9, 17},
		{80, 20},
		{100, 20},
	}

	for _, tt := range tests {
		if got := AdjustThresholdForMev(12, tt.score); got != tt.want {
			t.Errorf("AdjustThresholdForMev(12, %v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestCostBreakdown(t *testing.T) {
	tuning := testTuning()
	tuning.BaseGasPrice = gwei(30)
	adapter := newTestAdapter(&fakeChain{}, tuning)

	receipt := &types.Receipt{
		GasUsed:           21_000,
		EffectiveGasPrice: gwei(40),
	}

	// Quiet conditions: the whole premium is plain gas competition.
	cost := adapter.costBreakdown(receipt, 0)
	wantBase := new(big.Int).Mul(big.NewInt(21_000), gwei(30))
	wantPremium := new(big.Int).Mul(big.NewInt(21_000), gwei(10))
	if cost.BaseCost.Cmp(wantBase) != 0 {
		t.Errorf("expected base cost %s, got %s", wantBase, cost.BaseCost)
	}
	if cost.GasPremium.Cmp(wantPremium) != 0 {
		t.Errorf("expected gas premium %s, got %s", wantPremium, cost.GasPremium)
	}
	if cost.MevPremium.Sign() != 0 {
		t.Errorf("expected zero MEV premium, got %s", cost.MevPremium)
	}

	// A score of 75 attributes half the premium to MEV; the total is
	// preserved.
	cost = adapter.costBreakdown(receipt, 75)
	wantHalf := new(big.Int).Div(wantPremium, big.NewInt(2))
	if cost.MevPremium.Cmp(wantHalf) != 0 {
		t.Errorf("expected MEV premium %s, got %s", wantHalf, cost.MevPremium)
	}
	wantTotal := new(big.Int).Add(wantBase, wantPremium)
	if cost.Total().Cmp(wantTotal) != 0 {
		t.Errorf("expected total %s, got %s", wantTotal, cost.Total())
	}

	// At a saturated score the whole premium is attributed.
	cost = adapter.costBreakdown(receipt, 100)
	if cost.MevPremium.Cmp(wantPremium) != 0 {
		t.Errorf("expected the full premium %s, got %s", wantPremium, cost.MevPremium)
	}
	if cost.GasPremium.Sign() != 0 {
		t.Errorf("expected zero gas premium, got %s", cost.GasPremium)
	}

	// Paying below the configured base yields no premium at all.
	cheap := &types.Receipt{GasUsed: 21_000, EffectiveGasPrice: gwei(20)}
	cost = adapter.costBreakdown(cheap, 90)
	if cost.GasPremium.Sign() != 0 || cost.MevPremium.Sign() != 0 {
		t.Errorf("expected no premium below the base price, got %s / %s",
			cost.GasPremium, cost.MevPremium)
	}
}

func TestMeasureFinalitySuccess(t *testing.T) {
	txHash := common.BigToHash(big.NewInt(0xfeed))
	chain := &fakeChain{
		head:        10,
		minePerPoll: true,
		gasPrice:    gwei(30),
		receipts: map[common.Hash]*types.Receipt{
			txHash: {
				TxHash:            txHash,
				BlockNumber:       10,
				Status:            1,
				GasUsed:           21_000,
				EffectiveGasPrice: gwei(40),
			},
		},
	}

	tuning := testTuning()
	tuning.BaseGasPrice = gwei(30)
	tuning.ConfirmationTarget = 3
	adapter := newTestAdapter(chain, tuning)

	measurement, err := adapter.MeasureFinality(context.Background(), txHash, 0)
	if err != nil {
		t.Fatalf("MeasureFinality failed: %v", err)
	}

	if !measurement.Success {
		t.Fatalf("expected a successful measurement, got error %q", measurement.Error)
	}
	if measurement.ID == "" {
		t.Error("expected a measurement id")
	}
	if measurement.BaseThreshold != 3 {
		t.Errorf("expected the configured target 3, got %d", measurement.BaseThreshold)
	}
	if measurement.AdjustedThreshold != 3 {
		t.Errorf("expected no MEV adjustment on a quiet network, got %d", measurement.AdjustedThreshold)
	}
	if measurement.FullFinality < measurement.InitialConfirmation {
		t.Errorf("full finality %v must not precede the initial confirmation %v",
			measurement.FullFinality, measurement.InitialConfirmation)
	}
	if measurement.Reorged {
		t.Error("expected no reorganization on a stable chain")
	}

	wantBase := new(big.Int).Mul(big.NewInt(21_000), gwei(30))
	if measurement.Cost.BaseCost.Cmp(wantBase) != 0 {
		t.Errorf("expected base cost %s, got %s", wantBase, measurement.Cost.BaseCost)
	}

	stats := adapter.Stats()
	if stats.TotalTransactions != 1 || stats.Successful != 1 {
		t.Errorf("expected 1 successful measurement in the stats, got %+v", stats)
	}
}

func TestMeasureFinalityTimeoutReturnsFailedMeasurement(t *testing.T) {
	// No receipt is ever scripted, so the confirmation wait runs into the
	// adapter timeout.
	chain := &fakeChain{head: 10, minePerPoll: true}

	tuning := testTuning()
	tuning.Timeout = 30 * time.Millisecond
	adapter := newTestAdapter(chain, tuning)

	txHash := common.BigToHash(big.NewInt(0xdead))
	measurement, err := adapter.MeasureFinality(context.Background(), txHash, 6)
	if err != nil {
		t.Fatalf("expected the failure inside the measurement, got %v", err)
	}

	if measurement.Success {
		t.Fatal("expected a failed measurement")
	}
	if measurement.Error == "" {
		t.Error("expected the failure detail in the measurement")
	}

	stats := adapter.Stats()
	if stats.TotalTransactions != 1 || stats.Failed != 1 {
		t.Errorf("expected 1 failed measurement in the stats, got %+v", stats)
	}
}

func TestMeasureFinalityFlagsReorg(t *testing.T) {
	txHash := common.BigToHash(big.NewInt(0xbeef))
	chain := &fakeChain{
		head:        10,
		minePerPoll: true,
		gasPrice:    gwei(30),
		receipts: map[common.Hash]*types.Receipt{
			txHash: {
				TxHash:            txHash,
				BlockNumber:       10,
				Status:            1,
				GasUsed:           21_000,
				EffectiveGasPrice: gwei(30),
			},
		},
	}

	tuning := testTuning()
	tuning.ConfirmationTarget = 2
	adapter := newTestAdapter(chain, tuning)
	ctx := context.Background()

	// Observe the inclusion block once, then fork the chain underneath it.
	if _, err := adapter.ReorgMonitor().DetectReorganization(ctx, txHash, 10); err != nil {
		t.Fatalf("seeding observation failed: %v", err)
	}
	chain.fork(10)

	measurement, err := adapter.MeasureFinality(ctx, txHash, 0)
	if err != nil {
		t.Fatalf("MeasureFinality failed: %v", err)
	}

	if !measurement.Reorged {
		t.Fatal("expected the measurement to flag the reorganization")
	}
	if measurement.Reorg == nil || measurement.Reorg.BlockNumber != 10 {
		t.Errorf("expected a reorg event for block 10, got %+v", measurement.Reorg)
	}
	if stats := adapter.ReorgMonitor().Stats(); stats.TotalReorgs != 1 {
		t.Errorf("expected 1 recorded reorganization, got %+v", stats)
	}
}

func TestSubmitTransactionRetriesTransientFailures(t *testing.T) {
	wantHash := common.BigToHash(big.NewInt(0xcafe))
	chain := &fakeChain{
		gasPrice: gwei(20),
		sendHash: wantHash,
		sendErrs: []error{errors.New("replacement transaction underpriced")},
	}
	adapter := newTestAdapter(chain, testTuning())

	got, err := adapter.SubmitTransaction(context.Background(), []byte("finality probe"))
	if err != nil {
		t.Fatalf("SubmitTransaction failed: %v", err)
	}
	if got != wantHash {
		t.Errorf("expected hash %s, got %s", wantHash.Hex(), got.Hex())
	}
	if chain.sendCalls != 2 {
		t.Errorf("expected 2 send attempts, got %d", chain.sendCalls)
	}
}

func TestSubmitTransactionGivesUpOnFatalError(t *testing.T) {
	chain := &fakeChain{
		gasPrice: gwei(20),
		sendErrs: []error{errors.New("insufficient funds for transfer")},
	}
	adapter := newTestAdapter(chain, testTuning())

	if _, err := adapter.SubmitTransaction(context.Background(), nil); err == nil {
		t.Fatal("expected the fatal send error to propagate")
	}
	if chain.sendCalls != 1 {
		t.Errorf("expected a single send attempt, got %d", chain.sendCalls)
	}
}
