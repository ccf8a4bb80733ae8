package types

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// CongestionLevel represents the categorical network load.
type CongestionLevel string

const (
	CongestionLow    CongestionLevel = "low"
	CongestionMedium CongestionLevel = "medium"
	CongestionHigh   CongestionLevel = "high"
)

// NetworkConditions is a snapshot of live network state.
//
// Fields:
// - GasPrice: the node's current suggested gas price in wei.
// - BlockHeight: the current chain height.
// - BlockTime: the observed interval between the two latest blocks.
// - Balance: the measuring account's balance in wei.
// - CongestionScore: derived network load estimate in [0,100].
// - CongestionLevel: categorical load derived from CongestionScore with
//   network-specific thresholds.
type NetworkConditions struct {
	GasPrice        *big.Int
	BlockHeight     uint64
	BlockTime       time.Duration
	Balance         *big.Int
	CongestionScore float64
	CongestionLevel CongestionLevel
}

// GasOverrides holds the adjusted gas settings for a submission.
type GasOverrides struct {
	GasPrice *big.Int
	GasLimit uint64
}

// AdapterState is an exportable diagnostic snapshot of one adapter.
type AdapterState struct {
	Config     *NetworkConfig
	Stats      AdapterStats
	Mev        *MevConditions
	Reorgs     ReorgStats
	ExportedAt time.Time
}

// TransactionSubmitter provides measurement transaction broadcasting.
type TransactionSubmitter interface {
	// SubmitTransaction builds and broadcasts a minimal transaction carrying
	// the payload under the adapter's current gas policy, retrying transient
	// failures with backoff.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - payload: opaque calldata attached to the measurement transaction.
	//
	// Returns:
	// - common.Hash: the broadcast transaction hash.
	// - error: an error if the submission fails past the retry budget.
	SubmitTransaction(ctx context.Context, payload []byte) (common.Hash, error)
}

// ConfirmationWaiter provides confirmation waiting.
type ConfirmationWaiter interface {
	// WaitForConfirmation blocks until the transaction has the requested
	// number of confirmations, failing if the transaction is absent past the
	// adapter timeout or reverted.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - txHash: the transaction to wait for.
	// - confirmations: the required confirmation count.
	//
	// Returns:
	// - *Receipt: the transaction receipt.
	// - error: an error if the wait times out or the transaction reverted.
	WaitForConfirmation(ctx context.Context, txHash common.Hash, confirmations uint64) (*Receipt, error)
}

// ConditionsProvider provides live network condition snapshots.
type ConditionsProvider interface {
	// GetNetworkConditions returns current gas price, height, block time,
	// account balance and the derived congestion score.
	GetNetworkConditions(ctx context.Context) (*NetworkConditions, error)
}

// GasPolicy computes submission gas settings.
type GasPolicy interface {
	// GetGasOverrides computes an adjusted gas price and limit from the
	// configured base, live gas price and current MEV pressure, clamped to
	// the network's gas floor.
	GetGasOverrides(ctx context.Context) (*GasOverrides, error)
}

// FinalityMeasurer runs the central finality measurement algorithm.
type FinalityMeasurer interface {
	// MeasureFinality measures the time for the transaction to reach its
	// MEV-adjusted confirmation threshold. Failures are returned inside the
	// measurement rather than as an error so a campaign can continue past
	// individual failures; the error return is reserved for unusable adapter
	// state.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - txHash: the transaction to measure.
	// - baseThreshold: the confirmation target before MEV adjustment; zero
	//   selects the network's configured target.
	//
	// Returns:
	// - *FinalityMeasurement: the completed (possibly failed) measurement.
	// - error: an error if the adapter is not initialized.
	MeasureFinality(ctx context.Context, txHash common.Hash, baseThreshold uint64) (*FinalityMeasurement, error)
}

// AdapterLifecycle provides adapter setup, diagnostics and teardown.
type AdapterLifecycle interface {
	// Initialize establishes the ledger client connection, verifies or
	// refines the expected chain identifier and starts the adapter's
	// background monitors. It fails with a connection error if the network
	// is unreachable.
	Initialize(ctx context.Context) error

	// Config returns the adapter's network configuration.
	Config() *NetworkConfig

	// Stats returns a copy of the adapter's counters.
	Stats() AdapterStats

	// ExportState returns a diagnostic snapshot of the adapter.
	ExportState(ctx context.Context) *AdapterState

	// Close stops background monitors and releases the client connection.
	// Safe to call multiple times.
	Close()
}

// NetworkAdapter combines all per-network measurement functionality.
type NetworkAdapter interface {
	AdapterLifecycle
	TransactionSubmitter
	ConfirmationWaiter
	ConditionsProvider
	GasPolicy
	FinalityMeasurer
}

// AdapterRegistry manages multiple network adapters.
type AdapterRegistry interface {
	// Add constructs an adapter for the configuration and registers it.
	//
	// Parameters:
	// - ctx: the context for managing adapter construction.
	// - config: the configuration for the network to add.
	//
	// Returns:
	// - error: an error if adapter construction fails.
	Add(ctx context.Context, config *NetworkConfig) error

	// Get retrieves an adapter from the registry by network name.
	Get(name string) NetworkAdapter

	// Remove removes an adapter from the registry by network name.
	Remove(name string)
}
