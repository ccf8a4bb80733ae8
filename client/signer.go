package client

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// txSigner signs measurement transactions with a fixed private key.
type txSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// newTxSigner creates a signer from the given private key.
//
// Parameters:
// - privateKey: the private key to be used for signing.
//
// Returns:
// - *txSigner: a new signer instance.
// - error: an error if the private key is not valid.
func newTxSigner(privateKey *ecdsa.PrivateKey) (*txSigner, error) {
	pubKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("cannot assign public key to ECDSA")
	}

	return &txSigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*pubKey),
	}, nil
}

// Address returns the signer's address.
func (s *txSigner) Address() common.Address {
	return s.address
}

// SignTx signs the given transaction with the specified chain ID.
//
// Parameters:
// - tx: the transaction to be signed.
// - chainID: the chain ID for the transaction.
//
// Returns:
// - *ethtypes.Transaction: the signed transaction.
// - error: an error if the signing process fails.
func (s *txSigner) SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(s.privateKey, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create keyed transactor")
	}

	signedTx, err := auth.Signer(s.address, tx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	return signedTx, nil
}
