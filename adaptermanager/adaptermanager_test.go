package adaptermanager

import (
	"context"
	"math/big"
	"testing"

	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type fakeSubmitter struct {
	hash  common.Hash
	calls int
}

func (f *fakeSubmitter) SubmitTransaction(ctx context.Context, payload []byte) (common.Hash, error) {
	f.calls++
	return f.hash, nil
}

type fakeMeasurer struct {
	measurement *types.FinalityMeasurement
}

func (f *fakeMeasurer) MeasureFinality(ctx context.Context, txHash common.Hash, baseThreshold uint64) (*types.FinalityMeasurement, error) {
	return f.measurement, nil
}

func testConfig(name string) *types.NetworkConfig {
	return &types.NetworkConfig{
		Name:         name,
		Class:        types.ClassL2,
		BaseGasPrice: big.NewInt(1),
		GasFloor:     big.NewInt(1),
	}
}

func TestBuilderForwardsToImplementations(t *testing.T) {
	submitter := &fakeSubmitter{hash: common.BigToHash(big.NewInt(7))}
	measurer := &fakeMeasurer{measurement: &types.FinalityMeasurement{Network: "testnet", Success: true}}

	adapter := NewAdapterBuilder(testConfig("testnet")).
		WithTransactionSubmitter(submitter).
		WithFinalityMeasurer(measurer).
		Build()

	ctx := context.Background()

	hash, err := adapter.SubmitTransaction(ctx, []byte("probe"))
	if err != nil {
		t.Fatalf("SubmitTransaction failed: %v", err)
	}
	if hash != submitter.hash || submitter.calls != 1 {
		t.Errorf("expected the call to reach the submitter, got hash %s after %d calls",
			hash.Hex(), submitter.calls)
	}

	measurement, err := adapter.MeasureFinality(ctx, hash, 6)
	if err != nil {
		t.Fatalf("MeasureFinality failed: %v", err)
	}
	if !measurement.Success || measurement.Network != "testnet" {
		t.Errorf("expected the measurer's result, got %+v", measurement)
	}
}

func TestMissingCapabilitiesFailWithNotImplemented(t *testing.T) {
	adapter := NewAdapterBuilder(testConfig("testnet")).Build()
	ctx := context.Background()

	if _, err := adapter.SubmitTransaction(ctx, nil); !errors.Is(err, commonerrors.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented from SubmitTransaction, got %v", err)
	}
	if _, err := adapter.WaitForConfirmation(ctx, common.Hash{}, 1); !errors.Is(err, commonerrors.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented from WaitForConfirmation, got %v", err)
	}
	if _, err := adapter.GetNetworkConditions(ctx); !errors.Is(err, commonerrors.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented from GetNetworkConditions, got %v", err)
	}
	if _, err := adapter.GetGasOverrides(ctx); !errors.Is(err, commonerrors.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented from GetGasOverrides, got %v", err)
	}
	if err := adapter.Initialize(ctx); !errors.Is(err, commonerrors.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented from Initialize, got %v", err)
	}

	// Config falls back to the builder's configuration without a lifecycle.
	if got := adapter.Config(); got.Name != "testnet" {
		t.Errorf("expected the builder config, got %+v", got)
	}
}

type fakeFactory struct {
	err     error
	created []string
}

func (f *fakeFactory) CreateAdapter(ctx context.Context, config *types.NetworkConfig, logger *logrus.Logger) (types.NetworkAdapter, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, config.Name)
	return NewAdapterBuilder(config).Build(), nil
}

func TestRegistryAddGetRemove(t *testing.T) {
	factory := &fakeFactory{}
	registry := NewAdapterRegistry(factory, logrus.New())
	ctx := context.Background()

	if err := registry.Add(ctx, testConfig("polygon")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if len(factory.created) != 1 || factory.created[0] != "polygon" {
		t.Errorf("expected the factory to create polygon, got %v", factory.created)
	}

	adapter := registry.Get("polygon")
	if adapter == nil {
		t.Fatal("expected the registered adapter")
	}
	if adapter.Config().Name != "polygon" {
		t.Errorf("expected the polygon adapter, got %s", adapter.Config().Name)
	}

	if registry.Get("unknown") != nil {
		t.Error("expected nil for an unregistered network")
	}

	registry.Remove("polygon")
	if registry.Get("polygon") != nil {
		t.Error("expected the adapter to be gone after Remove")
	}
}

func TestRegistryAddPropagatesFactoryFailure(t *testing.T) {
	factory := &fakeFactory{err: errors.New("no rpc endpoint")}
	registry := NewAdapterRegistry(factory, logrus.New())

	if err := registry.Add(context.Background(), testConfig("polygon")); err == nil {
		t.Fatal("expected the factory failure to propagate")
	}
	if registry.Get("polygon") != nil {
		t.Error("expected no adapter to be registered after a failed Add")
	}
}
