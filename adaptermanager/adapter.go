// Package adaptermanager assembles network adapters from capability
// implementations and manages a registry of live adapters.
package adaptermanager

import (
	"context"
	"sync"

	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
)

// Adapter implements types.NetworkAdapter by forwarding to independently
// replaceable capability implementations. Each capability is protected by a
// read-write mutex so implementations can be swapped while measurements run.
type Adapter struct {
	config    *types.NetworkConfig
	lifecycle types.AdapterLifecycle
	submitter types.TransactionSubmitter
	waiter    types.ConfirmationWaiter
	provider  types.ConditionsProvider
	gasPolicy types.GasPolicy
	measurer  types.FinalityMeasurer

	lifecycleMutex sync.RWMutex
	submitterMutex sync.RWMutex
	waiterMutex    sync.RWMutex
	providerMutex  sync.RWMutex
	gasPolicyMutex sync.RWMutex
	measurerMutex  sync.RWMutex
}

// NewAdapter creates an adapter from its capability implementations. Any
// capability may be nil; calls through a missing capability fail with
// ErrNotImplemented.
//
// Parameters:
// - config: the network configuration.
// - lifecycle: the lifecycle implementation.
// - submitter: the transaction submitter implementation.
// - waiter: the confirmation waiter implementation.
// - provider: the network conditions provider implementation.
// - gasPolicy: the gas policy implementation.
// - measurer: the finality measurer implementation.
//
// Returns:
// - *Adapter: a new Adapter instance.
func NewAdapter(
	config *types.NetworkConfig,
	lifecycle types.AdapterLifecycle,
	submitter types.TransactionSubmitter,
	waiter types.ConfirmationWaiter,
	provider types.ConditionsProvider,
	gasPolicy types.GasPolicy,
	measurer types.FinalityMeasurer,
) *Adapter {
	return &Adapter{
		config:    config,
		lifecycle: lifecycle,
		submitter: submitter,
		waiter:    waiter,
		provider:  provider,
		gasPolicy: gasPolicy,
		measurer:  measurer,
	}
}

// Initialize forwards to the lifecycle implementation.
//
// Parameters:
// - ctx: the context for managing initialization.
//
// Returns:
// - error: ErrNotImplemented when no lifecycle is set, the underlying
//   failure otherwise.
func (a *Adapter) Initialize(ctx context.Context) error {
	a.lifecycleMutex.RLock()
	defer a.lifecycleMutex.RUnlock()

	if a.lifecycle == nil {
		return commonerrors.ErrNotImplemented
	}
	return a.lifecycle.Initialize(ctx)
}

// Config returns the network configuration.
func (a *Adapter) Config() *types.NetworkConfig {
	a.lifecycleMutex.RLock()
	lifecycle := a.lifecycle
	a.lifecycleMutex.RUnlock()

	if lifecycle != nil {
		return lifecycle.Config()
	}
	return a.config
}

// Stats forwards to the lifecycle implementation, returning zero counters
// when none is set.
func (a *Adapter) Stats() types.AdapterStats {
	a.lifecycleMutex.RLock()
	defer a.lifecycleMutex.RUnlock()

	if a.lifecycle == nil {
		return types.AdapterStats{}
	}
	return a.lifecycle.Stats()
}

// ExportState forwards to the lifecycle implementation.
func (a *Adapter) ExportState(ctx context.Context) *types.AdapterState {
	a.lifecycleMutex.RLock()
	defer a.lifecycleMutex.RUnlock()

	if a.lifecycle == nil {
		return &types.AdapterState{Config: a.config}
	}
	return a.lifecycle.ExportState(ctx)
}

// Close forwards to the lifecycle implementation.
func (a *Adapter) Close() {
	a.lifecycleMutex.RLock()
	defer a.lifecycleMutex.RUnlock()

	if a.lifecycle != nil {
		a.lifecycle.Close()
	}
}

// SubmitTransaction forwards to the submitter implementation.
//
// Parameters:
// - ctx: the context for managing the request.
// - payload: opaque calldata for the measurement transaction.
//
// Returns:
// - common.Hash: the broadcast transaction hash.
// - error: ErrNotImplemented when no submitter is set, the underlying
//   failure otherwise.
func (a *Adapter) SubmitTransaction(ctx context.Context, payload []byte) (common.Hash, error) {
	a.submitterMutex.RLock()
	defer a.submitterMutex.RUnlock()

	if a.submitter == nil {
		return common.Hash{}, commonerrors.ErrNotImplemented
	}
	return a.submitter.SubmitTransaction(ctx, payload)
}

// WaitForConfirmation forwards to the waiter implementation.
//
// Parameters:
// - ctx: the context for managing the request.
// - txHash: the transaction to wait for.
// - confirmations: the required confirmation count.
//
// Returns:
// - *types.Receipt: the transaction receipt.
// - error: ErrNotImplemented when no waiter is set, the underlying failure
//   otherwise.
func (a *Adapter) WaitForConfirmation(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error) {
	a.waiterMutex.RLock()
	defer a.waiterMutex.RUnlock()

	if a.waiter == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return a.waiter.WaitForConfirmation(ctx, txHash, confirmations)
}

// GetNetworkConditions forwards to the conditions provider implementation.
func (a *Adapter) GetNetworkConditions(ctx context.Context) (*types.NetworkConditions, error) {
	a.providerMutex.RLock()
	defer a.providerMutex.RUnlock()

	if a.provider == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return a.provider.GetNetworkConditions(ctx)
}

// GetGasOverrides forwards to the gas policy implementation.
func (a *Adapter) GetGasOverrides(ctx context.Context) (*types.GasOverrides, error) {
	a.gasPolicyMutex.RLock()
	defer a.gasPolicyMutex.RUnlock()

	if a.gasPolicy == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return a.gasPolicy.GetGasOverrides(ctx)
}

// MeasureFinality forwards to the measurer implementation.
//
// Parameters:
// - ctx: the context for managing the request.
// - txHash: the transaction to measure.
// - baseThreshold: the confirmation target before MEV adjustment.
//
// Returns:
// - *types.FinalityMeasurement: the completed measurement.
// - error: ErrNotImplemented when no measurer is set, the underlying
//   failure otherwise.
func (a *Adapter) MeasureFinality(ctx context.Context, txHash common.Hash, baseThreshold uint64) (*types.FinalityMeasurement, error) {
	a.measurerMutex.RLock()
	defer a.measurerMutex.RUnlock()

	if a.measurer == nil {
		return nil, commonerrors.ErrNotImplemented
	}
	return a.measurer.MeasureFinality(ctx, txHash, baseThreshold)
}

// GetSubmitter returns the transaction submitter with thread-safe access.
func (a *Adapter) GetSubmitter() types.TransactionSubmitter {
	a.submitterMutex.RLock()
	defer a.submitterMutex.RUnlock()
	return a.submitter
}

// GetWaiter returns the confirmation waiter with thread-safe access.
func (a *Adapter) GetWaiter() types.ConfirmationWaiter {
	a.waiterMutex.RLock()
	defer a.waiterMutex.RUnlock()
	return a.waiter
}

// GetMeasurer returns the finality measurer with thread-safe access.
func (a *Adapter) GetMeasurer() types.FinalityMeasurer {
	a.measurerMutex.RLock()
	defer a.measurerMutex.RUnlock()
	return a.measurer
}
