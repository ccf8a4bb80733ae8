package networks

import (
	"context"
	"testing"

	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	commontypes "github.com/ClipFinance/finality-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func TestCreateAdapterForKnownNetwork(t *testing.T) {
	factory := NewAdapterFactory("")
	logger := logrus.New()

	config := &commontypes.NetworkConfig{
		Name:   "arbitrum",
		RpcUrl: "http://localhost:8545",
	}
	adapter, err := factory.CreateAdapter(context.Background(), config, logger)
	if err != nil {
		t.Fatalf("CreateAdapter failed: %v", err)
	}
	if adapter.Config().Name != "arbitrum" {
		t.Errorf("expected an arbitrum adapter, got %s", adapter.Config().Name)
	}
}

func TestCreateAdapterFallsBackToGenericEvm(t *testing.T) {
	factory := NewAdapterFactory("")
	logger := logrus.New()

	config := &commontypes.NetworkConfig{
		Name:   "somechain",
		RpcUrl: "http://localhost:8545",
	}
	adapter, err := factory.CreateAdapter(context.Background(), config, logger)
	if err != nil {
		t.Fatalf("CreateAdapter failed: %v", err)
	}
	if adapter.Config().Name != "somechain" {
		t.Errorf("expected the generic adapter to carry the network name, got %s", adapter.Config().Name)
	}
}

func TestCreateAdapterRejectsMissingName(t *testing.T) {
	factory := NewAdapterFactory("")

	if _, err := factory.CreateAdapter(context.Background(), &commontypes.NetworkConfig{}, logrus.New()); !errors.Is(err, commonerrors.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRegisterConstructorOverride(t *testing.T) {
	factory := NewAdapterFactory("")

	called := false
	factory.RegisterConstructor("somechain", func(ctx context.Context, config *commontypes.NetworkConfig, privateKey string, logger *logrus.Logger) (commontypes.NetworkAdapter, error) {
		called = true
		return nil, errors.New("constructor stub")
	})

	config := &commontypes.NetworkConfig{Name: "somechain", RpcUrl: "http://localhost:8545"}
	if _, err := factory.CreateAdapter(context.Background(), config, logrus.New()); err == nil {
		t.Fatal("expected the stub constructor error")
	}
	if !called {
		t.Error("expected the registered constructor to be invoked")
	}
}
