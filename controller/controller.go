// Package controller orchestrates finality measurement campaigns across the
// registered network adapters.
package controller

import (
	"context"
	"sync"

	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// State represents the controller lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitialized   State = "initialized"
	StateRunning       State = "running"
	StateIdle          State = "idle"
)

// Controller drives measurement campaigns over a table of network adapters.
// Adapters are registered before initialization; campaigns run after it. The
// controller is re-enterable: a finished campaign returns it to the idle
// state from which the next campaign can start.
type Controller struct {
	logger *logrus.Logger
	sink   types.MeasurementSink

	mu       sync.RWMutex
	state    State
	adapters map[string]types.NetworkAdapter
}

// New creates a controller in the uninitialized state.
//
// Parameters:
// - sink: the measurement sink campaigns write to; nil disables emission.
// - logger: the logger for logging events.
//
// Returns:
// - *Controller: a new controller instance.
func New(sink types.MeasurementSink, logger *logrus.Logger) *Controller {
	return &Controller{
		logger:   logger,
		sink:     sink,
		state:    StateUninitialized,
		adapters: make(map[string]types.NetworkAdapter),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// RegisterAdapter adds an adapter to the controller's table under the given
// network name. Registration is only allowed before a campaign is running.
//
// Parameters:
// - name: the network name to register the adapter under.
// - adapter: the adapter to register.
//
// Returns:
// - error: an error if the name is already taken or a campaign is running.
func (c *Controller) RegisterAdapter(name string, adapter types.NetworkAdapter) error {
	if name == "" || adapter == nil {
		return errors.Wrap(commonerrors.ErrInvalidConfig, "adapter name and instance are required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return errors.Wrap(commonerrors.ErrControllerState, "cannot register adapters while a campaign is running")
	}
	if _, exists := c.adapters[name]; exists {
		return errors.Wrapf(commonerrors.ErrNetworkExists, "network %s", name)
	}

	c.adapters[name] = adapter

	c.logger.WithFields(logrus.Fields{
		"network": name,
		"class":   adapter.Config().Class,
	}).Info("Network adapter registered")

	return nil
}

// Adapter returns the registered adapter for a network, or nil.
func (c *Controller) Adapter(name string) types.NetworkAdapter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.adapters[name]
}

// Networks returns the names of the registered adapters.
func (c *Controller) Networks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.adapters))
	for name := range c.adapters {
		names = append(names, name)
	}
	return names
}

// InitializeAdapters initializes every registered adapter concurrently.
// Initialization is fail-fast: a campaign without a working adapter cannot
// proceed, so any single failure aborts the whole step and the controller
// stays uninitialized.
//
// Parameters:
// - ctx: the context for managing initialization.
//
// Returns:
// - error: the first initialization failure, nil when all adapters came up.
func (c *Controller) InitializeAdapters(ctx context.Context) error {
	c.mu.RLock()
	if c.state == StateRunning {
		c.mu.RUnlock()
		return errors.Wrap(commonerrors.ErrControllerState, "campaign in progress")
	}
	adapters := make(map[string]types.NetworkAdapter, len(c.adapters))
	for name, adapter := range c.adapters {
		adapters[name] = adapter
	}
	c.mu.RUnlock()

	if len(adapters) == 0 {
		return errors.Wrap(commonerrors.ErrInvalidConfig, "no adapters registered")
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for name, adapter := range adapters {
		name, adapter := name, adapter
		group.Go(func() error {
			if err := adapter.Initialize(groupCtx); err != nil {
				return errors.Wrapf(err, "failed to initialize network %s", name)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	c.state = StateInitialized
	c.mu.Unlock()

	c.logger.WithField("networks", len(adapters)).Info("All network adapters initialized")
	return nil
}

// HealthStatus reports one adapter's health check outcome.
type HealthStatus struct {
	Network     string
	BlockHeight uint64
	Healthy     bool
	Err         error
}

// RunHealthChecks queries every adapter's live conditions concurrently. An
// unhealthy adapter is logged and reported but does not abort the check or
// the campaign; callers decide what to do with degraded networks.
//
// Parameters:
// - ctx: the context for managing the checks.
//
// Returns:
// - map[string]HealthStatus: per-network health, keyed by network name.
func (c *Controller) RunHealthChecks(ctx context.Context) map[string]HealthStatus {
	c.mu.RLock()
	adapters := make(map[string]types.NetworkAdapter, len(c.adapters))
	for name, adapter := range c.adapters {
		adapters[name] = adapter
	}
	c.mu.RUnlock()

	results := make(map[string]HealthStatus, len(adapters))
	var resultsMutex sync.Mutex

	var wg sync.WaitGroup
	for name, adapter := range adapters {
		wg.Add(1)
		go func(name string, adapter types.NetworkAdapter) {
			defer wg.Done()

			status := HealthStatus{Network: name}
			conditions, err := adapter.GetNetworkConditions(ctx)
			if err != nil {
				status.Err = err
				c.logger.WithFields(logrus.Fields{
					"network": name,
					"error":   err,
				}).Warn("Network health check failed")
			} else {
				status.Healthy = true
				status.BlockHeight = conditions.BlockHeight
			}

			resultsMutex.Lock()
			results[name] = status
			resultsMutex.Unlock()
		}(name, adapter)
	}
	wg.Wait()

	return results
}

// Close closes every registered adapter and returns the controller to the
// uninitialized state. Safe to call multiple times.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, adapter := range c.adapters {
		adapter.Close()
	}
	c.state = StateUninitialized
}

// beginCampaign transitions the controller into the running state.
func (c *Controller) beginCampaign() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInitialized && c.state != StateIdle {
		return errors.Wrapf(commonerrors.ErrControllerState, "cannot start a campaign from state %s", c.state)
	}
	c.state = StateRunning
	return nil
}

// endCampaign returns the controller to the idle state.
func (c *Controller) endCampaign() {
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
}
