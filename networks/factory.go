// Package networks wires per-network adapter constructors into a factory
// keyed by network name.
package networks

import (
	"context"
	"sync"

	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	commontypes "github.com/ClipFinance/finality-lib/common/types"
	"github.com/ClipFinance/finality-lib/networks/evm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// AdapterConstructor represents a function that constructs a new network
// adapter instance.
//
// Parameters:
// - ctx: the context for managing adapter construction.
// - config: the configuration for the network.
// - privateKey: hex-encoded signing key for measurement transactions.
// - logger: the logger for logging events.
//
// Returns:
// - commontypes.NetworkAdapter: the constructed adapter instance.
// - error: an error if the adapter construction fails.
type AdapterConstructor func(ctx context.Context, config *commontypes.NetworkConfig, privateKey string, logger *logrus.Logger) (commontypes.NetworkAdapter, error)

// AdapterFactory defines the interface for adapter creation.
type AdapterFactory interface {
	// RegisterConstructor registers a new adapter constructor for a given
	// network name.
	//
	// Parameters:
	// - network: the name of the network to register.
	// - constructor: the constructor function for the network.
	RegisterConstructor(network string, constructor AdapterConstructor)

	// CreateAdapter creates a new adapter instance based on the configuration.
	// Networks without a dedicated constructor fall back to the generic EVM
	// constructor.
	//
	// Parameters:
	// - ctx: the context for managing adapter construction.
	// - config: the configuration for the network.
	// - logger: the logger for logging events.
	//
	// Returns:
	// - commontypes.NetworkAdapter: the created adapter instance.
	// - error: an error if the adapter creation fails.
	CreateAdapter(ctx context.Context, config *commontypes.NetworkConfig, logger *logrus.Logger) (commontypes.NetworkAdapter, error)
}

type adapterFactory struct {
	privateKey string

	// constructors stores the mapping of network names to their constructors.
	constructors map[string]AdapterConstructor
	// constructorsMutex protects access to the constructors map.
	constructorsMutex sync.RWMutex
}

// genericNetwork is the fallback constructor key for networks without a
// dedicated entry.
const genericNetwork = "evm"

// NewAdapterFactory creates a new instance of the adapter factory.
//
// Parameters:
// - privateKey: hex-encoded signing key shared by the constructed adapters.
//
// Returns:
// - AdapterFactory: the new adapter factory instance.
func NewAdapterFactory(privateKey string) AdapterFactory {
	factory := &adapterFactory{
		privateKey:   privateKey,
		constructors: make(map[string]AdapterConstructor),
	}

	// Initialize with default constructors.
	factory.registerConstructors()

	return factory
}

// RegisterConstructor registers a new adapter constructor.
//
// Parameters:
// - network: the name of the network to register.
// - constructor: the constructor function for the network.
func (f *adapterFactory) RegisterConstructor(network string, constructor AdapterConstructor) {
	f.constructorsMutex.Lock()
	defer f.constructorsMutex.Unlock()

	f.constructors[network] = constructor
}

// CreateAdapter creates a new adapter instance based on the configuration.
//
// Parameters:
// - ctx: the context for managing adapter construction.
// - config: the configuration for the network.
// - logger: the logger for logging events.
//
// Returns:
// - commontypes.NetworkAdapter: the created adapter instance.
// - error: an error if the adapter creation fails.
func (f *adapterFactory) CreateAdapter(ctx context.Context, config *commontypes.NetworkConfig, logger *logrus.Logger) (commontypes.NetworkAdapter, error) {
	if config == nil || config.Name == "" {
		return nil, errors.Wrap(commonerrors.ErrInvalidConfig, "network name is required")
	}

	f.constructorsMutex.RLock()
	constructor, exists := f.constructors[config.Name]
	if !exists {
		constructor, exists = f.constructors[genericNetwork]
	}
	f.constructorsMutex.RUnlock()

	if !exists {
		return nil, errors.Wrapf(commonerrors.ErrFactoryNotFound, "no constructor for network %s", config.Name)
	}

	return constructor(ctx, config, f.privateKey, logger)
}

// registerConstructors registers the network constructors for the adapter
// factory instance.
func (f *adapterFactory) registerConstructors() {
	evmConstructor := func(ctx context.Context, config *commontypes.NetworkConfig, privateKey string, logger *logrus.Logger) (commontypes.NetworkAdapter, error) {
		return evm.NewAdapter(evm.Options{
			Network:    config.Name,
			RpcUrl:     config.RpcUrl,
			PrivateKey: privateKey,
			Config:     config,
		}, logger)
	}

	for _, network := range evm.KnownNetworks() {
		f.RegisterConstructor(network, evmConstructor)
	}
	f.RegisterConstructor(genericNetwork, evmConstructor)
}
