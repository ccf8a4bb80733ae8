// Package finality provides an adaptive-interval confirmation polling
// strategy with network-class tuned early-termination rules.
package finality

import (
	"context"
	"sync"
	"time"

	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Profile holds the polling strategy parameters for one network class.
//
// Fields:
// - Class: the network class the profile is tuned for.
// - InitialInterval: the starting poll interval.
// - MaxInterval: the upper bound for the poll interval.
// - BackoffMultiplier: growth factor while confirmations are far away.
// - EarlyCertainty: confirmation count at which fast networks terminate
//   early, and the minimum for the slow-network 80% rule.
// - MaxWait: global timeout after which partial confirmations are reported.
type Profile struct {
	Class             types.NetworkClass
	InitialInterval   time.Duration
	MaxInterval       time.Duration
	BackoffMultiplier float64
	EarlyCertainty    uint64
	MaxWait           time.Duration
}

// ProfileFor returns the standard polling profile for a network class.
func ProfileFor(class types.NetworkClass) Profile {
	if class == types.ClassL2 {
		return Profile{
			Class:             types.ClassL2,
			InitialInterval:   500 * time.Millisecond,
			MaxInterval:       5 * time.Second,
			BackoffMultiplier: 1.3,
			EarlyCertainty:    2,
			MaxWait:           2 * time.Minute,
		}
	}
	return Profile{
		Class:             types.ClassL1,
		InitialInterval:   3 * time.Second,
		MaxInterval:       30 * time.Second,
		BackoffMultiplier: 1.5,
		EarlyCertainty:    3,
		MaxWait:           10 * time.Minute,
	}
}

// Result reports the outcome of one confirmation wait.
//
// Fields:
// - TxHash: the watched transaction.
// - Confirmations: confirmations observed when the wait ended.
// - Target: the requested confirmation count.
// - Elapsed: wall time spent waiting.
// - Final: true when the termination rules were satisfied.
// - Receipt: the last observed receipt, nil if never seen.
// - Err: the failure that ended the wait, nil on success or timeout.
type Result struct {
	TxHash        common.Hash
	Confirmations uint64
	Target        uint64
	Elapsed       time.Duration
	Final         bool
	Receipt       *types.Receipt
	Err           error
}

// Detector polls a ledger client for transaction confirmations using an
// adaptive interval that accelerates as the target approaches.
type Detector struct {
	network string
	profile Profile
	client  types.LedgerClient
	logger  *logrus.Logger
}

// NewDetector creates a detector for one network.
//
// Parameters:
// - network: the network name, used for logging.
// - profile: the polling profile.
// - ledger: the ledger client to poll.
// - logger: the logger for logging events.
//
// Returns:
// - *Detector: a new detector instance.
func NewDetector(network string, profile Profile, ledger types.LedgerClient, logger *logrus.Logger) *Detector {
	return &Detector{
		network: network,
		profile: profile,
		client:  ledger,
		logger:  logger,
	}
}

// WaitForFinality polls until the transaction reaches the target
// confirmation count or an early-termination rule fires. On timeout the
// partial result is returned together with ErrWaitTimeout instead of
// hanging indefinitely.
//
// Parameters:
// - ctx: the context for managing the wait.
// - txHash: the transaction to watch.
// - target: the required confirmation count.
//
// Returns:
// - *Result: the wait outcome, non-nil even on timeout.
// - error: ErrWaitTimeout on timeout, the underlying failure otherwise.
func (d *Detector) WaitForFinality(ctx context.Context, txHash common.Hash, target uint64) (*Result, error) {
	if target == 0 {
		target = 1
	}

	start := time.Now()
	deadline := start.Add(d.profile.MaxWait)
	interval := d.profile.InitialInterval

	result := &Result{TxHash: txHash, Target: target}

	for {
		if time.Now().After(deadline) {
			result.Elapsed = time.Since(start)
			d.logger.WithFields(logrus.Fields{
				"network":       d.network,
				"txHash":        txHash.Hex(),
				"confirmations": result.Confirmations,
				"target":        target,
			}).Warn("Finality wait timed out with partial confirmations")
			return result, commonerrors.ErrWaitTimeout
		}

		receipt, err := d.client.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			height, herr := d.client.BlockNumber(ctx)
			if herr != nil {
				result.Elapsed = time.Since(start)
				result.Err = errors.Wrap(herr, "failed to get block number")
				return result, result.Err
			}

			var confirmations uint64
			if height >= receipt.BlockNumber {
				confirmations = height - receipt.BlockNumber + 1
			}
			result.Confirmations = confirmations
			result.Receipt = receipt

			if receipt.Status == 0 {
				result.Elapsed = time.Since(start)
				result.Err = commonerrors.ErrTxReverted
				return result, result.Err
			}

			if d.shouldTerminate(confirmations, target) {
				result.Elapsed = time.Since(start)
				result.Final = true
				return result, nil
			}

			interval = d.nextInterval(interval, confirmations, target)

		case errors.Is(err, commonerrors.ErrTxNotFound):
			// Receipt not available yet; back off toward the max interval.
			interval = d.grow(interval)

		default:
			result.Elapsed = time.Since(start)
			result.Err = errors.Wrap(err, "failed to get transaction receipt")
			return result, result.Err
		}

		select {
		case <-ctx.Done():
			result.Elapsed = time.Since(start)
			result.Err = ctx.Err()
			return result, result.Err
		case <-time.After(interval):
		}
	}
}

// shouldTerminate applies the network-class early-termination rules.
func (d *Detector) shouldTerminate(confirmations, target uint64) bool {
	if confirmations >= target {
		return true
	}
	if d.profile.Class == types.ClassL2 {
		return confirmations >= d.profile.EarlyCertainty
	}
	// Slower networks may stop at 80% of the target once past the
	// early-certainty floor.
	return confirmations >= d.profile.EarlyCertainty &&
		float64(confirmations) >= 0.8*float64(target)
}

func (d *Detector) grow(interval time.Duration) time.Duration {
	next := time.Duration(float64(interval) * d.profile.BackoffMultiplier)
	if next > d.profile.MaxInterval {
		next = d.profile.MaxInterval
	}
	return next
}

// nextInterval chooses the next poll interval from the confirmation
// progress ratio: far from the target the interval grows, past 30% it
// shrinks toward the initial value, and on the home stretch it drops to
// half the initial value so polling accelerates as finality approaches.
func (d *Detector) nextInterval(current time.Duration, confirmations, target uint64) time.Duration {
	progress := float64(confirmations) / float64(target)

	switch {
	case progress < 0.3:
		return d.grow(current)

	case progress <= 0.8:
		next := time.Duration(float64(current) / d.profile.BackoffMultiplier)
		if next < d.profile.InitialInterval {
			next = d.profile.InitialInterval
		}
		return next

	default:
		return d.profile.InitialInterval / 2
	}
}

// WaitForMany watches several transactions concurrently and collects the
// independent results; one transaction's failure does not affect the others.
// Results are returned in input order.
func (d *Detector) WaitForMany(ctx context.Context, txHashes []common.Hash, target uint64) []*Result {
	results := make([]*Result, len(txHashes))

	var wg sync.WaitGroup
	for i, txHash := range txHashes {
		wg.Add(1)
		go func(i int, txHash common.Hash) {
			defer wg.Done()
			result, err := d.WaitForFinality(ctx, txHash, target)
			if result == nil {
				result = &Result{TxHash: txHash, Target: target, Err: err}
			} else if result.Err == nil && err != nil {
				result.Err = err
			}
			results[i] = result
		}(i, txHash)
	}
	wg.Wait()

	return results
}
