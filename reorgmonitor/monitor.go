// Package reorgmonitor provides a per-network background watcher detecting
// block-hash replacement and estimating reorganization depth and cause.
package reorgmonitor

import (
	"context"
	"sort"
	"sync"
	"time"

	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ClipFinance/finality-lib/mevmonitor"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// State represents the monitor lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Config holds the reorganization monitor tuning for one network.
//
// Fields:
// - Network: the monitored network name, used for logging.
// - Interval: the re-check interval for cached block hashes.
// - CacheDepth: number of recent blocks kept in the hash cache.
// - MaxWalkDepth: cap on the forward walk when estimating reorg depth.
// - Indicators: indicator tuning used to assess replacing blocks.
// - Causation: MEV-causation assessment tuning.
type Config struct {
	Network      string
	Interval     time.Duration
	CacheDepth   int
	MaxWalkDepth int
	Indicators   mevmonitor.IndicatorConfig
	Causation    CausationConfig
}

// DefaultConfig returns the standard reorganization monitor tuning.
func DefaultConfig(network string) Config {
	return Config{
		Network:      network,
		Interval:     5 * time.Second,
		CacheDepth:   20,
		MaxWalkDepth: 10,
		Indicators:   mevmonitor.DefaultIndicatorConfig(),
		Causation:    DefaultCausationConfig(),
	}
}

// Monitor watches recent block hashes of one network and records
// reorganization events. The hash cache is mutated only by the monitor's own
// goroutine and the on-demand detection path, both under the mutex.
type Monitor struct {
	cfg    Config
	client types.LedgerClient
	logger *logrus.Logger

	mu       sync.RWMutex
	state    State
	stopChan chan struct{}
	cache    map[uint64]common.Hash
	events   []types.ReorgEvent

	totalReorgs   uint64
	mevAttributed uint64
	depthSum      uint64
}

// NewMonitor creates a monitor in the idle state.
//
// Parameters:
// - cfg: the monitor tuning.
// - ledger: the ledger client used to fetch blocks.
// - logger: the logger for logging events.
//
// Returns:
// - *Monitor: a new monitor instance.
func NewMonitor(cfg Config, ledger types.LedgerClient, logger *logrus.Logger) *Monitor {
	if cfg.CacheDepth <= 0 {
		cfg.CacheDepth = 20
	}
	if cfg.MaxWalkDepth <= 0 {
		cfg.MaxWalkDepth = 10
	}
	return &Monitor{
		cfg:      cfg,
		client:   ledger,
		logger:   logger,
		state:    StateIdle,
		stopChan: make(chan struct{}),
		cache:    make(map[uint64]common.Hash),
	}
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Start seeds the hash cache from the current chain head and launches the
// background re-check loop.
//
// Parameters:
// - ctx: the context bounding the monitoring lifetime.
//
// Returns:
// - error: an error if the monitor is not idle or seeding fails.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return errors.Wrapf(commonerrors.ErrMonitorRunning, "reorg monitor for network %s is %s", m.cfg.Network, m.state)
	}
	m.state = StateRunning
	m.mu.Unlock()

	if err := m.seed(ctx); err != nil {
		m.mu.Lock()
		m.state = StateIdle
		m.mu.Unlock()
		return errors.Wrap(err, "failed to seed reorg cache")
	}

	go m.run(ctx)
	return nil
}

// Stop stops the background loop. Safe to call multiple times and on a
// monitor that never started.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateStopped {
		return
	}
	if m.state == StateRunning {
		close(m.stopChan)
	}
	m.state = StateStopped
}

// seed fills the hash cache with the most recent CacheDepth block hashes.
func (m *Monitor) seed(ctx context.Context) error {
	head, err := m.client.BlockNumber(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get chain head")
	}

	start := uint64(0)
	if head >= uint64(m.cfg.CacheDepth) {
		start = head - uint64(m.cfg.CacheDepth) + 1
	}

	for number := start; number <= head; number++ {
		block, err := m.client.BlockByNumber(ctx, number, false)
		if err != nil {
			return errors.Wrapf(err, "failed to get block %d", number)
		}
		m.mu.Lock()
		m.cache[number] = block.Hash
		m.mu.Unlock()
	}
	return nil
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.WithField("network", m.cfg.Network).Info("Reorg monitoring stopped due to context cancellation")
			m.markStopped()
			return

		case <-m.stopChan:
			m.logger.WithField("network", m.cfg.Network).Info("Reorg monitoring stopped")
			return

		case <-ticker.C:
			if err := m.tick(ctx); err != nil {
				m.logger.WithFields(logrus.Fields{
					"network": m.cfg.Network,
					"error":   err,
				}).Warn("Reorg monitor tick failed")
			}
		}
	}
}

func (m *Monitor) markStopped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateRunning {
		m.state = StateStopped
	}
}

// tick re-fetches every cached block number and treats a hash mismatch as a
// detected reorganization, then advances the cache window to the new head.
func (m *Monitor) tick(ctx context.Context) error {
	m.mu.RLock()
	numbers := make([]uint64, 0, len(m.cache))
	for number := range m.cache {
		numbers = append(numbers, number)
	}
	m.mu.RUnlock()
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	for _, number := range numbers {
		block, err := m.client.BlockByNumber(ctx, number, false)
		if err != nil {
			return errors.Wrapf(err, "failed to re-fetch block %d", number)
		}

		m.mu.RLock()
		cached, ok := m.cache[number]
		m.mu.RUnlock()

		if ok && cached != block.Hash {
			if _, err := m.handleReorg(ctx, number, cached, block.Hash, nil); err != nil {
				return err
			}
		}
	}

	return m.advance(ctx)
}

// advance extends the cache with new head blocks and evicts entries older
// than the cache depth.
func (m *Monitor) advance(ctx context.Context) error {
	head, err := m.client.BlockNumber(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get chain head")
	}

	m.mu.RLock()
	var highest uint64
	for number := range m.cache {
		if number > highest {
			highest = number
		}
	}
	m.mu.RUnlock()

	for number := highest + 1; number <= head; number++ {
		block, err := m.client.BlockByNumber(ctx, number, false)
		if err != nil {
			return errors.Wrapf(err, "failed to get block %d", number)
		}
		m.mu.Lock()
		m.cache[number] = block.Hash
		m.mu.Unlock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if head >= uint64(m.cfg.CacheDepth) {
		oldest := head - uint64(m.cfg.CacheDepth) + 1
		for number := range m.cache {
			if number < oldest {
				delete(m.cache, number)
			}
		}
	}
	return nil
}

// handleReorg walks forward to estimate depth, assesses MEV causation on the
// replacing block and records the event.
func (m *Monitor) handleReorg(ctx context.Context, number uint64, original, replacement common.Hash, affected []common.Hash) (*types.ReorgEvent, error) {
	depth := uint64(1)
	for offset := 1; offset < m.cfg.MaxWalkDepth; offset++ {
		next := number + uint64(offset)

		m.mu.RLock()
		cached, ok := m.cache[next]
		m.mu.RUnlock()
		if !ok {
			break
		}

		block, err := m.client.BlockByNumber(ctx, next, false)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to walk block %d", next)
		}
		if block.Hash == cached {
			break
		}

		depth++
		m.mu.Lock()
		m.cache[next] = block.Hash
		m.mu.Unlock()
	}

	replacing, err := m.client.BlockByNumber(ctx, number, true)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get replacing block %d", number)
	}

	indicators := m.indicatorsFor(replacing)
	extractedUSD := EstimateExtractedValueUSD(replacing, m.cfg.Causation)
	evidence, likelyMev := AssessCausation(indicators, extractedUSD, m.cfg.Causation)

	event := types.ReorgEvent{
		BlockNumber:     number,
		OriginalHash:    original,
		ReplacementHash: replacement,
		Depth:           depth,
		EvidenceScore:   evidence,
		LikelyMevCause:  likelyMev,
		AffectedTxs:     affected,
		DetectedAt:      time.Now(),
	}

	m.mu.Lock()
	m.cache[number] = replacement
	m.events = append(m.events, event)
	m.totalReorgs++
	m.depthSum += depth
	if likelyMev {
		m.mevAttributed++
	}
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"network":   m.cfg.Network,
		"block":     number,
		"depth":     depth,
		"evidence":  evidence,
		"mevCause":  likelyMev,
		"original":  original.Hex(),
		"replacing": replacement.Hex(),
	}).Warn("Chain reorganization detected")

	return &event, nil
}

// DetectReorganization is the on-demand check used by the finality path. It
// compares the cached hash at blockNumber against the live chain and records
// a reorganization event on mismatch.
//
// Parameters:
// - ctx: the context for managing the request.
// - txHash: the transaction whose inclusion block is being checked.
// - blockNumber: the block number the transaction was observed in.
//
// Returns:
// - *types.ReorgEvent: the detected event, or nil when the hash is stable.
// - error: an error if the live chain cannot be queried.
func (m *Monitor) DetectReorganization(ctx context.Context, txHash common.Hash, blockNumber uint64) (*types.ReorgEvent, error) {
	block, err := m.client.BlockByNumber(ctx, blockNumber, false)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get block %d", blockNumber)
	}

	m.mu.Lock()
	cached, ok := m.cache[blockNumber]
	if !ok {
		// First observation of this block; remember it for later checks.
		m.cache[blockNumber] = block.Hash
		m.mu.Unlock()
		return nil, nil
	}
	m.mu.Unlock()

	if cached == block.Hash {
		return nil, nil
	}

	return m.handleReorg(ctx, blockNumber, cached, block.Hash, []common.Hash{txHash})
}

// Events returns a copy of the append-only event log, oldest first.
func (m *Monitor) Events() []types.ReorgEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.ReorgEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Stats returns cumulative reorganization statistics.
func (m *Monitor) Stats() types.ReorgStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := types.ReorgStats{
		TotalReorgs:   m.totalReorgs,
		MevAttributed: m.mevAttributed,
	}
	if m.totalReorgs > 0 {
		stats.MevAttributedPct = float64(m.mevAttributed) / float64(m.totalReorgs) * 100
		stats.AverageDepth = float64(m.depthSum) / float64(m.totalReorgs)
	}
	return stats
}
