// Package mevmonitor provides a per-network background scorer producing a
// 0-100 MEV pressure signal from recent block contents.
package mevmonitor

import (
	"context"
	"math"
	"sync"
	"time"

	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
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

// Config holds the MEV monitor tuning for one network.
//
// Fields:
// - Network: the monitored network name, used for logging.
// - Interval: the poll interval, roughly one block period.
// - Smoothing: exponential moving average factor applied to block scores.
// - WindowSize: number of recent block scores kept for the rolling average.
// - BufferSize: number of block observations kept in the ring buffer.
// - NotableJump: raw-vs-smoothed score gap that is logged as notable.
// - Weights: indicator weighting for the combined score.
// - Indicators: tunable indicator constants.
type Config struct {
	Network     string
	Interval    time.Duration
	Smoothing   float64
	WindowSize  int
	BufferSize  int
	NotableJump float64
	Weights     Weights
	Indicators  IndicatorConfig
}

// DefaultConfig returns the standard monitor tuning for a network with the
// given block time.
func DefaultConfig(network string, blockTime time.Duration) Config {
	if blockTime <= 0 {
		blockTime = 12 * time.Second
	}
	return Config{
		Network:     network,
		Interval:    blockTime,
		Smoothing:   0.3,
		WindowSize:  5,
		BufferSize:  16,
		NotableJump: 20,
		Weights:     DefaultWeights(),
		Indicators:  DefaultIndicatorConfig(),
	}
}

// Monitor watches recent blocks of one network and publishes a smoothed MEV
// pressure score. All cached state is mutated only by the monitor's own
// background goroutine; readers receive snapshots.
type Monitor struct {
	cfg    Config
	client types.LedgerClient
	logger *logrus.Logger

	mu           sync.RWMutex
	state        State
	stopChan     chan struct{}
	smoothed     float64
	hasSample    bool
	window       []float64
	observations []types.BlockObservation
	lastBlock    uint64
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
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 5
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	return &Monitor{
		cfg:      cfg,
		client:   ledger,
		logger:   logger,
		state:    StateIdle,
		stopChan: make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Start launches the background scoring loop.
//
// Parameters:
// - ctx: the context bounding the monitoring lifetime.
//
// Returns:
// - error: an error if the monitor is not idle.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return errors.Wrapf(commonerrors.ErrMonitorRunning, "mev monitor for network %s is %s", m.cfg.Network, m.state)
	}
	m.state = StateRunning
	m.mu.Unlock()

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

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.WithField("network", m.cfg.Network).Info("MEV monitoring stopped due to context cancellation")
			m.markStopped()
			return

		case <-m.stopChan:
			m.logger.WithField("network", m.cfg.Network).Info("MEV monitoring stopped")
			return

		case <-ticker.C:
			// A failed tick is logged and skipped; the loop keeps running.
			if err := m.tick(ctx); err != nil {
				m.logger.WithFields(logrus.Fields{
					"network": m.cfg.Network,
					"error":   err,
				}).Warn("MEV monitor tick failed")
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

// tick fetches the latest block and folds its score into the smoothed signal.
func (m *Monitor) tick(ctx context.Context) error {
	height, err := m.client.BlockNumber(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get block number")
	}

	m.mu.RLock()
	seen := m.lastBlock
	m.mu.RUnlock()

	if height == seen {
		return nil
	}

	block, err := m.client.BlockByNumber(ctx, height, true)
	if err != nil {
		return errors.Wrapf(err, "failed to get block %d", height)
	}

	indicators := ComputeIndicators(block, m.cfg.Indicators)
	raw := CombineScore(indicators, m.cfg.Weights)

	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.smoothed
	hadSample := m.hasSample
	if !hadSample {
		m.smoothed = raw
		m.hasSample = true
	} else {
		m.smoothed = m.cfg.Smoothing*raw + (1-m.cfg.Smoothing)*previous
	}

	if hadSample && math.Abs(raw-previous) > m.cfg.NotableJump {
		m.logger.WithFields(logrus.Fields{
			"network":  m.cfg.Network,
			"block":    block.Number,
			"raw":      raw,
			"smoothed": m.smoothed,
		}).Warn("Notable MEV activity jump detected")
	}

	m.window = append(m.window, raw)
	if len(m.window) > m.cfg.WindowSize {
		m.window = m.window[len(m.window)-m.cfg.WindowSize:]
	}

	m.observations = append(m.observations, types.BlockObservation{
		BlockNumber: block.Number,
		Hash:        block.Hash,
		Timestamp:   block.Timestamp,
		Indicators:  indicators,
		Score:       raw,
	})
	if len(m.observations) > m.cfg.BufferSize {
		m.observations = m.observations[len(m.observations)-m.cfg.BufferSize:]
	}

	m.lastBlock = height
	return nil
}

// CurrentScore returns the smoothed MEV pressure score in [0,100].
func (m *Monitor) CurrentScore() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.smoothed
}

// Observations returns a copy of the bounded observation buffer, oldest
// first.
func (m *Monitor) Observations() []types.BlockObservation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.BlockObservation, len(m.observations))
	copy(out, m.observations)
	return out
}
