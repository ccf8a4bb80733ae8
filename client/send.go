package client

import (
	"context"

	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// SendTransaction builds a legacy transaction from the request, signs it and
// broadcasts it.
//
// Parameters:
// - ctx: the context for managing the request.
// - req: the transaction request to broadcast.
//
// Returns:
// - common.Hash: the broadcast transaction hash.
// - error: an error if the client is read-only, nonce retrieval fails or the
//   broadcast fails.
func (c *EvmClient) SendTransaction(ctx context.Context, req *types.TransactionRequest) (common.Hash, error) {
	ethClient, err := c.getClient()
	if err != nil {
		return common.Hash{}, err
	}

	c.signerMutex.RLock()
	signer := c.signer
	c.signerMutex.RUnlock()

	if signer == nil {
		return common.Hash{}, errors.New("client has no signing key")
	}

	nonce, err := ethClient.PendingNonceAt(ctx, signer.Address())
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to get nonce")
	}

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to get chain id")
	}

	tx := ethtypes.NewTransaction(
		nonce,
		req.To,
		req.Value,
		req.GasLimit,
		req.GasPrice,
		req.Data,
	)

	signedTx, err := signer.SignTx(tx, chainID)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to sign transaction")
	}

	if err := ethClient.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to send transaction")
	}

	return signedTx.Hash(), nil
}
