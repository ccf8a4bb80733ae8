package evm

import (
	"context"
	"time"

	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// WaitForConfirmation polls for the transaction receipt roughly once per
// expected block interval until the requested confirmation count is reached.
// The wait is bounded by the adapter's configured timeout; a transaction
// still absent at the deadline fails with ErrWaitTimeout and a reverted
// transaction fails immediately with ErrTxReverted.
//
// Parameters:
// - ctx: the context for managing the request.
// - txHash: the transaction to wait for.
// - confirmations: the required confirmation count, minimum 1.
//
// Returns:
// - *types.Receipt: the transaction receipt.
// - error: an error if the wait times out or the transaction reverted.
func (a *Adapter) WaitForConfirmation(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error) {
	ledger, err := a.getLedger()
	if err != nil {
		return nil, err
	}

	if confirmations == 0 {
		confirmations = 1
	}

	interval := a.config.ExpectedBlockTime
	if interval <= 0 {
		interval = time.Second
	}

	waitCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := ledger.TransactionReceipt(waitCtx, txHash)
		switch {
		case err == nil:
			if receipt.Status == 0 {
				return receipt, errors.Wrapf(commonerrors.ErrTxReverted,
					"transaction %s on network %s", txHash.Hex(), a.config.Name)
			}

			height, herr := ledger.BlockNumber(waitCtx)
			if herr != nil {
				return nil, errors.Wrap(herr, "failed to get block number")
			}
			if height >= receipt.BlockNumber && height-receipt.BlockNumber+1 >= confirmations {
				return receipt, nil
			}

		case errors.Is(err, commonerrors.ErrTxNotFound):
			// Still pending; keep polling until the deadline.

		default:
			return nil, errors.Wrap(err, "failed to get transaction receipt")
		}

		select {
		case <-waitCtx.Done():
			a.logger.WithFields(logrus.Fields{
				"network": a.config.Name,
				"txHash":  txHash.Hex(),
				"target":  confirmations,
			}).Warn("Confirmation wait timed out")
			return nil, errors.Wrapf(commonerrors.ErrWaitTimeout,
				"transaction %s on network %s", txHash.Hex(), a.config.Name)
		case <-ticker.C:
		}
	}
}
