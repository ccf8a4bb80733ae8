package adaptermanager

import (
	"github.com/ClipFinance/finality-lib/common/types"
)

// AdapterBuilder is a builder pattern implementation for adapter assembly.
// It allows setting the capability implementations of the adapter one at a
// time before building the composite.
type AdapterBuilder struct {
	config    *types.NetworkConfig
	lifecycle types.AdapterLifecycle
	submitter types.TransactionSubmitter
	waiter    types.ConfirmationWaiter
	provider  types.ConditionsProvider
	gasPolicy types.GasPolicy
	measurer  types.FinalityMeasurer
}

// NewAdapterBuilder creates a new adapter builder instance.
//
// Parameters:
// - config: the network configuration.
//
// Returns:
// - *AdapterBuilder: a new AdapterBuilder instance.
func NewAdapterBuilder(config *types.NetworkConfig) *AdapterBuilder {
	return &AdapterBuilder{
		config: config,
	}
}

// WithLifecycle sets the lifecycle implementation.
//
// Parameters:
// - lifecycle: the lifecycle implementation.
//
// Returns:
// - *AdapterBuilder: the updated AdapterBuilder instance.
func (b *AdapterBuilder) WithLifecycle(lifecycle types.AdapterLifecycle) *AdapterBuilder {
	b.lifecycle = lifecycle
	return b
}

// WithTransactionSubmitter sets the transaction submitter implementation.
//
// Parameters:
// - submitter: the transaction submitter implementation.
//
// Returns:
// - *AdapterBuilder: the updated AdapterBuilder instance.
func (b *AdapterBuilder) WithTransactionSubmitter(submitter types.TransactionSubmitter) *AdapterBuilder {
	b.submitter = submitter
	return b
}

// WithConfirmationWaiter sets the confirmation waiter implementation.
//
// Parameters:
// - waiter: the confirmation waiter implementation.
//
// Returns:
// - *AdapterBuilder: the updated AdapterBuilder instance.
func (b *AdapterBuilder) WithConfirmationWaiter(waiter types.ConfirmationWaiter) *AdapterBuilder {
	b.waiter = waiter
	return b
}

// WithConditionsProvider sets the network conditions provider implementation.
//
// Parameters:
// - provider: the conditions provider implementation.
//
// Returns:
// - *AdapterBuilder: the updated AdapterBuilder instance.
func (b *AdapterBuilder) WithConditionsProvider(provider types.ConditionsProvider) *AdapterBuilder {
	b.provider = provider
	return b
}

// WithGasPolicy sets the gas policy implementation.
//
// Parameters:
// - gasPolicy: the gas policy implementation.
//
// Returns:
// - *AdapterBuilder: the updated AdapterBuilder instance.
func (b *AdapterBuilder) WithGasPolicy(gasPolicy types.GasPolicy) *AdapterBuilder {
	b.gasPolicy = gasPolicy
	return b
}

// WithFinalityMeasurer sets the finality measurer implementation.
//
// Parameters:
// - measurer: the finality measurer implementation.
//
// Returns:
// - *AdapterBuilder: the updated AdapterBuilder instance.
func (b *AdapterBuilder) WithFinalityMeasurer(measurer types.FinalityMeasurer) *AdapterBuilder {
	b.measurer = measurer
	return b
}

// FromImplementation sets every capability from one full adapter
// implementation.
//
// Parameters:
// - impl: the adapter implementation providing all capabilities.
//
// Returns:
// - *AdapterBuilder: the updated AdapterBuilder instance.
func (b *AdapterBuilder) FromImplementation(impl types.NetworkAdapter) *AdapterBuilder {
	b.lifecycle = impl
	b.submitter = impl
	b.waiter = impl
	b.provider = impl
	b.gasPolicy = impl
	b.measurer = impl
	return b
}

// Build creates a new adapter instance with the configured implementations.
//
// Returns:
// - types.NetworkAdapter: a new Adapter instance with the configured
//   implementations.
func (b *AdapterBuilder) Build() types.NetworkAdapter {
	return NewAdapter(b.config, b.lifecycle, b.submitter, b.waiter, b.provider, b.gasPolicy, b.measurer)
}
