package controller

import (
	"context"
	"math/big"
	"sync"
	"time"

	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TestConfig describes one finality measurement campaign.
//
// Fields:
// - Networks: the networks to measure; empty selects every registered one.
// - Measurements: transactions to submit and measure per network.
// - BaseThreshold: confirmation target before MEV adjustment; zero selects
//   each network's configured target.
// - Payload: opaque calldata attached to every measurement transaction.
// - Cooldown: pause between consecutive measurements on one network.
type TestConfig struct {
	Networks      []string
	Measurements  int
	BaseThreshold uint64
	Payload       []byte
	Cooldown      time.Duration
}

// NetworkResult collects one network's campaign outcome.
//
// Fields:
// - Network: the measured network.
// - Measurements: every measurement taken, failed ones included.
// - Successful: count of measurements that reached finality.
// - Failed: count of measurements that did not.
// - SuccessRate: Successful over the total, in [0,1].
// - TotalCost: summed cost of successful measurements in wei.
// - FinalityTimes: full-finality durations of successful measurements.
// - MevRisk: the network's MEV risk level sampled at campaign end.
type NetworkResult struct {
	Network       string
	Measurements  []*types.FinalityMeasurement
	Successful    int
	Failed        int
	SuccessRate   float64
	TotalCost     *big.Int
	FinalityTimes []time.Duration
	MevRisk       types.MevRiskLevel
}

// Report is the outcome of one campaign.
//
// Fields:
// - StartedAt: campaign start time.
// - CompletedAt: campaign end time.
// - Results: per-network outcomes keyed by network name.
// - Analysis: the cross-network comparison, nil when nothing succeeded.
type Report struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Results     map[string]*NetworkResult
	Analysis    *Analysis
}

// RunFinalityTest runs a measurement campaign: for every requested network
// it submits and measures the configured number of transactions, emitting
// each measurement to the sink. Networks are driven concurrently with
// all-settled semantics; individual measurement failures are logged and
// counted without stopping the loop. A finished campaign always reports
// per-network success and failure counts, even when every measurement
// failed.
//
// Parameters:
// - ctx: the context for managing the campaign.
// - config: the campaign configuration.
//
// Returns:
// - *Report: per-network results and the cross-network analysis.
// - error: an error if the controller is in the wrong state or a requested
//   network is not registered.
func (c *Controller) RunFinalityTest(ctx context.Context, config TestConfig) (*Report, error) {
	if config.Measurements <= 0 {
		return nil, errors.Wrap(commonerrors.ErrInvalidConfig, "measurement count must be positive")
	}

	networks := config.Networks
	if len(networks) == 0 {
		networks = c.Networks()
	}

	adapters := make(map[string]types.NetworkAdapter, len(networks))
	for _, name := range networks {
		adapter := c.Adapter(name)
		if adapter == nil {
			return nil, errors.Wrapf(commonerrors.ErrNetworkNotFound, "network %s", name)
		}
		adapters[name] = adapter
	}

	if err := c.beginCampaign(); err != nil {
		return nil, err
	}
	defer c.endCampaign()

	report := &Report{
		StartedAt: time.Now(),
		Results:   make(map[string]*NetworkResult, len(adapters)),
	}

	var resultsMutex sync.Mutex
	var wg sync.WaitGroup
	for name, adapter := range adapters {
		wg.Add(1)
		go func(name string, adapter types.NetworkAdapter) {
			defer wg.Done()
			result := c.runNetworkCampaign(ctx, name, adapter, config)

			resultsMutex.Lock()
			report.Results[name] = result
			resultsMutex.Unlock()
		}(name, adapter)
	}
	wg.Wait()

	report.CompletedAt = time.Now()
	report.Analysis = buildAnalysis(report.Results)

	c.logger.WithFields(logrus.Fields{
		"networks": len(report.Results),
		"duration": report.CompletedAt.Sub(report.StartedAt),
	}).Info("Finality campaign completed")

	return report, nil
}

// runNetworkCampaign runs the sequential measurement loop for one network.
func (c *Controller) runNetworkCampaign(ctx context.Context, name string, adapter types.NetworkAdapter, config TestConfig) *NetworkResult {
	result := &NetworkResult{
		Network:   name,
		TotalCost: new(big.Int),
	}

loop:
	for i := 0; i < config.Measurements; i++ {
		measurement := c.runMeasurement(ctx, name, adapter, config)
		result.Measurements = append(result.Measurements, measurement)

		if measurement.Success {
			result.Successful++
			result.TotalCost.Add(result.TotalCost, measurement.Cost.Total())
			result.FinalityTimes = append(result.FinalityTimes, measurement.FullFinality)
		} else {
			result.Failed++
		}

		if config.Cooldown > 0 && i < config.Measurements-1 {
			select {
			case <-ctx.Done():
				break loop
			case <-time.After(config.Cooldown):
			}
		}
	}

	total := result.Successful + result.Failed
	if total > 0 {
		result.SuccessRate = float64(result.Successful) / float64(total)
	}
	result.MevRisk = mevRiskOf(result.Measurements)

	c.logger.WithFields(logrus.Fields{
		"network":     name,
		"successful":  result.Successful,
		"failed":      result.Failed,
		"successRate": result.SuccessRate,
	}).Info("Network campaign finished")

	return result
}

// runMeasurement submits and measures one transaction, emitting the outcome
// to the sink. Failures come back inside the measurement so the loop can
// continue.
func (c *Controller) runMeasurement(ctx context.Context, name string, adapter types.NetworkAdapter, config TestConfig) *types.FinalityMeasurement {
	txHash, err := adapter.SubmitTransaction(ctx, config.Payload)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"network": name,
			"error":   err,
		}).Warn("Measurement submission failed")
		c.recordError(ctx, name, "submit transaction", err)
		return &types.FinalityMeasurement{
			Network:   name,
			StartedAt: time.Now(),
			Error:     err.Error(),
		}
	}

	measurement, err := adapter.MeasureFinality(ctx, txHash, config.BaseThreshold)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"network": name,
			"txHash":  txHash.Hex(),
			"error":   err,
		}).Warn("Finality measurement failed")
		c.recordError(ctx, name, "measure finality", err)
		return &types.FinalityMeasurement{
			Network:   name,
			TxHash:    txHash,
			StartedAt: time.Now(),
			Error:     err.Error(),
		}
	}

	if !measurement.Success {
		c.logger.WithFields(logrus.Fields{
			"network": name,
			"txHash":  txHash.Hex(),
			"error":   measurement.Error,
		}).Warn("Measurement did not reach finality")
	}

	c.recordMeasurement(ctx, name, measurement)
	return measurement
}

func (c *Controller) recordMeasurement(ctx context.Context, network string, m *types.FinalityMeasurement) {
	if c.sink == nil {
		return
	}
	if _, err := c.sink.RecordMeasurement(ctx, network, m); err != nil {
		c.logger.WithFields(logrus.Fields{
			"network": network,
			"error":   err,
		}).Warn("Failed to record measurement")
	}
}

func (c *Controller) recordError(ctx context.Context, network, opContext string, detail error) {
	if c.sink == nil {
		return
	}
	if err := c.sink.RecordError(ctx, network, opContext, detail); err != nil {
		c.logger.WithFields(logrus.Fields{
			"network": network,
			"error":   err,
		}).Warn("Failed to record campaign error")
	}
}

// mevRiskOf derives a network's campaign-end risk level from the last
// measurement that carries MEV conditions.
func mevRiskOf(measurements []*types.FinalityMeasurement) types.MevRiskLevel {
	for i := len(measurements) - 1; i >= 0; i-- {
		if conditions := measurements[i].MevAtEnd; conditions != nil {
			return conditions.RiskLevel
		}
		if conditions := measurements[i].MevAtStart; conditions != nil {
			return conditions.RiskLevel
		}
	}
	return types.RiskMinimal
}
