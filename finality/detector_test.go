package finality

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// confirmingLedger mines one block per height query so confirmations grow as
// the detector polls.
type confirmingLedger struct {
	mu       sync.Mutex
	height   uint64
	receipts map[common.Hash]*types.Receipt
	absent   map[common.Hash]bool
}

func newConfirmingLedger() *confirmingLedger {
	return &confirmingLedger{
		height:   100,
		receipts: make(map[common.Hash]*types.Receipt),
		absent:   make(map[common.Hash]bool),
	}
}

func (f *confirmingLedger) include(txHash common.Hash, block uint64, status uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts[txHash] = &types.Receipt{
		TxHash:            txHash,
		BlockNumber:       block,
		Status:            status,
		GasUsed:           21_000,
		EffectiveGasPrice: big.NewInt(1_000_000_000),
	}
}

func (f *confirmingLedger) BlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.height++
	return f.height, nil
}

func (f *confirmingLedger) BlockByNumber(ctx context.Context, number uint64, withTxs bool) (*types.Block, error) {
	return &types.Block{Number: number}, nil
}

func (f *confirmingLedger) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.absent[txHash] {
		return nil, commonerrors.ErrTxNotFound
	}
	receipt, ok := f.receipts[txHash]
	if !ok {
		return nil, commonerrors.ErrTxNotFound
	}
	return receipt, nil
}

func (f *confirmingLedger) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *confirmingLedger) BalanceAt(ctx context.Context, address common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *confirmingLedger) SendTransaction(ctx context.Context, req *types.TransactionRequest) (common.Hash, error) {
	return common.Hash{}, errors.New("not scripted")
}

func (f *confirmingLedger) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func fastProfile(class types.NetworkClass) Profile {
	p := ProfileFor(class)
	p.InitialInterval = time.Millisecond
	p.MaxInterval = 5 * time.Millisecond
	p.MaxWait = time.Second
	return p
}

func TestEarlyCertaintyTerminatesL2Wait(t *testing.T) {
	ledger := newConfirmingLedger()
	txHash := common.BigToHash(big.NewInt(1))
	ledger.include(txHash, 101, 1)

	d := NewDetector("l2net", fastProfile(types.ClassL2), ledger, quietLogger())

	result, err := d.WaitForFinality(context.Background(), txHash, 64)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if !result.Final {
		t.Fatal("expected final result")
	}
	if result.Confirmations >= 64 {
		t.Errorf("expected early termination well before target, got %d confirmations", result.Confirmations)
	}
	if result.Confirmations < d.profile.EarlyCertainty {
		t.Errorf("expected at least %d confirmations, got %d", d.profile.EarlyCertainty, result.Confirmations)
	}
}

func TestL1EightyPercentRule(t *testing.T) {
	d := NewDetector("l1net", ProfileFor(types.ClassL1), nil, quietLogger())

	if d.shouldTerminate(2, 12) {
		t.Error("2 of 12 confirmations should not terminate")
	}
	// 80% of 10 is 8, and 8 >= the early-certainty floor.
	if !d.shouldTerminate(8, 10) {
		t.Error("8 of 10 confirmations should terminate under the 80% rule")
	}
	// Above the floor but below 80%.
	if d.shouldTerminate(5, 10) {
		t.Error("5 of 10 confirmations should not terminate")
	}
	if !d.shouldTerminate(12, 12) {
		t.Error("reaching the target should always terminate")
	}
}

func TestNextIntervalSchedule(t *testing.T) {
	profile := ProfileFor(types.ClassL1)
	d := NewDetector("l1net", profile, nil, quietLogger())

	// Below 30% progress the interval grows.
	grown := d.nextInterval(profile.InitialInterval, 1, 12)
	if grown <= profile.InitialInterval {
		t.Errorf("expected interval to grow at low progress, got %v", grown)
	}

	// Growth is capped at the max interval.
	if capped := d.nextInterval(profile.MaxInterval, 1, 100); capped != profile.MaxInterval {
		t.Errorf("expected interval capped at %v, got %v", profile.MaxInterval, capped)
	}

	// Mid progress shrinks toward the initial interval.
	shrunk := d.nextInterval(profile.MaxInterval, 6, 12)
	if shrunk >= profile.MaxInterval {
		t.Errorf("expected interval to shrink at mid progress, got %v", shrunk)
	}
	if floor := d.nextInterval(profile.InitialInterval, 6, 12); floor != profile.InitialInterval {
		t.Errorf("expected shrink floored at the initial interval, got %v", floor)
	}

	// Past 80% the interval drops to half the initial value.
	if sprint := d.nextInterval(profile.MaxInterval, 11, 12); sprint != profile.InitialInterval/2 {
		t.Errorf("expected half the initial interval near the target, got %v", sprint)
	}
}

func TestTimeoutReportsPartialConfirmations(t *testing.T) {
	ledger := newConfirmingLedger()
	txHash := common.BigToHash(big.NewInt(2))
	ledger.absent[txHash] = true

	profile := fastProfile(types.ClassL1)
	profile.MaxWait = 20 * time.Millisecond
	d := NewDetector("l1net", profile, ledger, quietLogger())

	result, err := d.WaitForFinality(context.Background(), txHash, 12)
	if !errors.Is(err, commonerrors.ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout, got %v", err)
	}
	if result == nil {
		t.Fatal("expected a partial result on timeout")
	}
	if result.Final {
		t.Error("timed out result must not be final")
	}
}

func TestRevertedTransaction(t *testing.T) {
	ledger := newConfirmingLedger()
	txHash := common.BigToHash(big.NewInt(3))
	ledger.include(txHash, 101, 0)

	d := NewDetector("l1net", fastProfile(types.ClassL1), ledger, quietLogger())

	_, err := d.WaitForFinality(context.Background(), txHash, 3)
	if !errors.Is(err, commonerrors.ErrTxReverted) {
		t.Fatalf("expected ErrTxReverted, got %v", err)
	}
}

func TestWaitForManyIsolatesFailures(t *testing.T) {
	ledger := newConfirmingLedger()
	good := common.BigToHash(big.NewInt(4))
	bad := common.BigToHash(big.NewInt(5))
	ledger.include(good, 101, 1)
	ledger.include(bad, 101, 0)

	d := NewDetector("l2net", fastProfile(types.ClassL2), ledger, quietLogger())

	results := d.WaitForMany(context.Background(), []common.Hash{good, bad}, 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Final || results[0].Err != nil {
		t.Errorf("expected the good transaction to finalize, got %+v", results[0])
	}
	if results[1].Err == nil {
		t.Error("expected the reverted transaction to carry an error")
	}
}
