package adaptermanager

import (
	"context"
	"sync"

	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/sirupsen/logrus"
)

type adapterRegistry struct {
	logger        *logrus.Logger
	adapters      map[string]types.NetworkAdapter
	adaptersMutex sync.RWMutex
	factory       interface {
		CreateAdapter(ctx context.Context, config *types.NetworkConfig, logger *logrus.Logger) (types.NetworkAdapter, error)
	}
	factoryMutex sync.RWMutex
}

// NewAdapterRegistry creates a registry that constructs adapters through the
// factory and keys them by network name.
//
// Parameters:
// - factory: the adapter factory used by Add.
// - logger: the logger for logging events.
//
// Returns:
// - types.AdapterRegistry: the new registry instance.
func NewAdapterRegistry(factory interface {
	CreateAdapter(ctx context.Context, config *types.NetworkConfig, logger *logrus.Logger) (types.NetworkAdapter, error)
}, logger *logrus.Logger) types.AdapterRegistry {
	return &adapterRegistry{
		adapters: make(map[string]types.NetworkAdapter),
		factory:  factory,
		logger:   logger,
	}
}

func (r *adapterRegistry) Add(ctx context.Context, config *types.NetworkConfig) error {
	// Lock factory for reading to prevent changes during adapter creation.
	r.factoryMutex.RLock()
	adapter, err := r.factory.CreateAdapter(ctx, config, r.logger)
	r.factoryMutex.RUnlock()

	if err != nil {
		return err
	}

	r.adaptersMutex.Lock()
	r.adapters[config.Name] = adapter
	r.adaptersMutex.Unlock()

	return nil
}

func (r *adapterRegistry) Get(name string) types.NetworkAdapter {
	r.adaptersMutex.RLock()
	adapter := r.adapters[name]
	r.adaptersMutex.RUnlock()
	return adapter
}

func (r *adapterRegistry) Remove(name string) {
	r.adaptersMutex.Lock()
	delete(r.adapters, name)
	r.adaptersMutex.Unlock()
}
