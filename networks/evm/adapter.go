// Package evm implements the generic EVM network adapter and its per-network
// tunings for the finality measurement engine.
package evm

import (
	"context"
	"sync"
	"time"

	"github.com/ClipFinance/finality-lib/client"
	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ClipFinance/finality-lib/connectionmonitor"
	"github.com/ClipFinance/finality-lib/finality"
	"github.com/ClipFinance/finality-lib/mevmonitor"
	"github.com/ClipFinance/finality-lib/reorgmonitor"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options configures adapter construction.
//
// Fields:
// - Network: network name, selects the tuning from the known-network table
//   (generic EVM defaults otherwise).
// - RpcUrl: the RPC endpoint to dial during Initialize.
// - PrivateKey: hex-encoded signing key for measurement transactions.
// - Client: optional pre-built ledger client; when set the adapter skips
//   dialing and uses it directly together with Address.
// - Address: the measuring account address, required with a custom Client.
// - Tuning: optional tuning override replacing the table entry.
// - Config: optional network configuration override replacing the one
//   materialized from the tuning; RpcUrl is taken from the override when set.
// - MevConfig: optional MEV monitor tuning override.
// - ReorgConfig: optional reorg monitor tuning override.
type Options struct {
	Network     string
	RpcUrl      string
	PrivateKey  string
	Client      types.LedgerClient
	Address     common.Address
	Tuning      *Tuning
	Config      *types.NetworkConfig
	MevConfig   *mevmonitor.Config
	ReorgConfig *reorgmonitor.Config
}

// Adapter is the generic EVM implementation of types.NetworkAdapter. Each
// adapter owns its ledger client connection and its own MEV and reorg
// monitor instances; nothing is shared across adapters.
type Adapter struct {
	config *types.NetworkConfig
	tuning Tuning
	logger *logrus.Logger

	clientMutex sync.RWMutex
	ledger      types.LedgerClient
	address     common.Address
	initialized bool

	mev      *mevmonitor.Monitor
	reorg    *reorgmonitor.Monitor
	detector *finality.Detector
	conn     connectionmonitor.ConnectionMonitor

	statsMutex sync.RWMutex
	stats      types.AdapterStats

	opts Options
}

// NewAdapter creates an uninitialized adapter for the network named in the
// options.
//
// Parameters:
// - opts: construction options.
// - logger: the logger for logging events.
//
// Returns:
// - *Adapter: the adapter, ready for Initialize.
// - error: an error if the options are inconsistent.
func NewAdapter(opts Options, logger *logrus.Logger) (*Adapter, error) {
	if opts.Network == "" {
		return nil, errors.Wrap(commonerrors.ErrInvalidConfig, "network name is required")
	}
	if opts.Client == nil && opts.RpcUrl == "" && (opts.Config == nil || opts.Config.RpcUrl == "") {
		return nil, errors.Wrap(commonerrors.ErrInvalidConfig, "either a ledger client or an rpc url is required")
	}

	tuning := TuningFor(opts.Network)
	if opts.Tuning != nil {
		tuning = *opts.Tuning
	}

	config := tuning.NetworkConfig(opts.RpcUrl)
	if opts.Config != nil {
		config = mergeConfig(config, opts.Config)
	}

	return &Adapter{
		config:  config,
		tuning:  tuning,
		logger:  logger,
		ledger:  opts.Client,
		address: opts.Address,
		opts:    opts,
	}, nil
}

// Initialize establishes the ledger client connection, verifies or refines
// the expected chain identifier and starts the adapter's MEV and reorg
// monitors. A network that cannot be reached fails with a connection error.
//
// Parameters:
// - ctx: the context for managing initialization.
//
// Returns:
// - error: an error if the connection, chain verification or monitor
//   startup fails.
func (a *Adapter) Initialize(ctx context.Context) error {
	a.clientMutex.Lock()
	if a.ledger == nil {
		evmClient, err := client.Dial(a.config.RpcUrl, a.opts.PrivateKey)
		if err != nil {
			a.clientMutex.Unlock()
			return errors.Wrapf(err, "failed to connect to network %s", a.config.Name)
		}
		a.ledger = evmClient
		a.address = evmClient.Address()
	}
	ledger := a.ledger
	a.clientMutex.Unlock()

	chainID, err := ledger.ChainID(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to verify chain id for network %s", a.config.Name)
	}

	if a.config.ChainID == 0 {
		// Generic configuration: adopt the live chain identifier.
		a.config.ChainID = chainID.Uint64()
	} else if a.config.ChainID != chainID.Uint64() {
		return errors.Wrapf(commonerrors.ErrChainIDMismatch,
			"network %s expects chain %d but endpoint reports %d",
			a.config.Name, a.config.ChainID, chainID.Uint64())
	}

	mevCfg := mevmonitor.DefaultConfig(a.config.Name, a.config.ExpectedBlockTime)
	if a.opts.MevConfig != nil {
		mevCfg = *a.opts.MevConfig
	}
	a.mev = mevmonitor.NewMonitor(mevCfg, ledger, a.logger)

	reorgCfg := reorgmonitor.DefaultConfig(a.config.Name)
	if a.opts.ReorgConfig != nil {
		reorgCfg = *a.opts.ReorgConfig
	}
	a.reorg = reorgmonitor.NewMonitor(reorgCfg, ledger, a.logger)

	if err := a.mev.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start mev monitor")
	}
	if err := a.reorg.Start(ctx); err != nil {
		a.mev.Stop()
		return errors.Wrap(err, "failed to start reorg monitor")
	}

	a.detector = finality.NewDetector(a.config.Name, finality.ProfileFor(a.config.Class), ledger, a.logger)

	if health, ok := ledger.(connectionmonitor.HealthCheckClient); ok {
		a.conn = connectionmonitor.NewConnectionMonitor(health, a.logger, a.config.Name)
		if err := a.conn.Start(ctx); err != nil {
			a.mev.Stop()
			a.reorg.Stop()
			return errors.Wrap(err, "failed to start connection monitor")
		}
	}

	a.clientMutex.Lock()
	a.initialized = true
	a.clientMutex.Unlock()

	a.logger.WithFields(logrus.Fields{
		"network": a.config.Name,
		"chainId": a.config.ChainID,
		"class":   a.config.Class,
	}).Info("Network adapter initialized")

	return nil
}

// Close stops the background monitors and releases the client connection.
// Safe to call multiple times.
func (a *Adapter) Close() {
	if a.mev != nil {
		a.mev.Stop()
	}
	if a.reorg != nil {
		a.reorg.Stop()
	}
	if a.conn != nil {
		a.conn.Stop()
		a.conn = nil
	}

	a.clientMutex.Lock()
	defer a.clientMutex.Unlock()

	if closer, ok := a.ledger.(interface{ Close() }); ok && a.ledger != nil {
		closer.Close()
	}
	a.ledger = nil
	a.initialized = false
}

// Config returns the adapter's network configuration.
func (a *Adapter) Config() *types.NetworkConfig {
	return a.config
}

// Stats returns a copy of the adapter's counters.
func (a *Adapter) Stats() types.AdapterStats {
	a.statsMutex.RLock()
	defer a.statsMutex.RUnlock()
	return a.stats
}

// ExportState returns a diagnostic snapshot: configuration, counters and the
// MEV and reorg monitor summaries.
func (a *Adapter) ExportState(ctx context.Context) *types.AdapterState {
	state := &types.AdapterState{
		Config:     a.config,
		Stats:      a.Stats(),
		ExportedAt: time.Now(),
	}
	if a.mev != nil {
		state.Mev = a.mev.CurrentConditions()
	}
	if a.reorg != nil {
		state.Reorgs = a.reorg.Stats()
	}
	return state
}

// MevMonitor exposes the adapter-owned MEV monitor for diagnostics.
func (a *Adapter) MevMonitor() *mevmonitor.Monitor {
	return a.mev
}

// ReorgMonitor exposes the adapter-owned reorg monitor for diagnostics.
func (a *Adapter) ReorgMonitor() *reorgmonitor.Monitor {
	return a.reorg
}

func (a *Adapter) getLedger() (types.LedgerClient, error) {
	a.clientMutex.RLock()
	defer a.clientMutex.RUnlock()

	if a.ledger == nil {
		return nil, commonerrors.ErrClientNotSet
	}
	if !a.initialized {
		return nil, commonerrors.ErrNotInitialized
	}
	return a.ledger, nil
}

// mevScore returns the current smoothed MEV score, zero when the monitor is
// not running.
func (a *Adapter) mevScore() float64 {
	if a.mev == nil {
		return 0
	}
	return a.mev.CurrentScore()
}

func (a *Adapter) recordSuccess(fullFinality time.Duration, adjusted bool) {
	a.statsMutex.Lock()
	defer a.statsMutex.Unlock()
	a.stats.TotalTransactions++
	a.stats.Successful++
	a.stats.TotalFinalityTime += fullFinality
	if adjusted {
		a.stats.MevAdjustments++
	}
}

func (a *Adapter) recordFailure(adjusted bool) {
	a.statsMutex.Lock()
	defer a.statsMutex.Unlock()
	a.stats.TotalTransactions++
	a.stats.Failed++
	if adjusted {
		a.stats.MevAdjustments++
	}
}
