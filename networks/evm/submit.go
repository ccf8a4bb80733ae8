package evm

import (
	"context"
	"math/big"

	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SubmitTransaction broadcasts a minimal self-transfer carrying the payload
// as calldata, priced by the adapter's current gas policy. Transient RPC
// failures are retried with the network's backoff settings.
//
// Parameters:
// - ctx: the context for managing the request.
// - payload: opaque calldata attached to the measurement transaction.
//
// Returns:
// - common.Hash: the broadcast transaction hash.
// - error: an error if the submission fails past the retry budget.
func (a *Adapter) SubmitTransaction(ctx context.Context, payload []byte) (common.Hash, error) {
	ledger, err := a.getLedger()
	if err != nil {
		return common.Hash{}, err
	}

	overrides, err := a.GetGasOverrides(ctx)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to compute gas overrides")
	}

	req := &types.TransactionRequest{
		To:       a.address,
		Value:    big.NewInt(0),
		GasPrice: overrides.GasPrice,
		GasLimit: overrides.GasLimit,
		Data:     payload,
	}

	var txHash common.Hash
	err = a.withRetry(ctx, "submit transaction", func(ctx context.Context) error {
		hash, sendErr := ledger.SendTransaction(ctx, req)
		if sendErr != nil {
			return sendErr
		}
		txHash = hash
		return nil
	})
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "failed to submit transaction on network %s", a.config.Name)
	}

	a.logger.WithFields(logrus.Fields{
		"network":  a.config.Name,
		"txHash":   txHash.Hex(),
		"gasPrice": overrides.GasPrice.String(),
	}).Debug("Measurement transaction submitted")

	return txHash, nil
}
