package types

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// BlockTransaction represents a single transaction inside an observed block.
//
// Fields:
// - Hash: the hash of the transaction.
// - From: the sender address.
// - To: the recipient address (zero address for contract creation).
// - Value: the transferred amount in wei.
// - GasPrice: the gas price offered by the transaction in wei.
// - Gas: the gas limit of the transaction.
type BlockTransaction struct {
	Hash     common.Hash
	From     common.Address
	To       common.Address
	Value    *big.Int
	GasPrice *big.Int
	Gas      uint64
}

// Block represents an observed block with optional transaction contents.
//
// Fields:
// - Number: the block number.
// - Hash: the block hash.
// - ParentHash: the parent block hash.
// - Timestamp: the block timestamp.
// - GasUsed: total gas consumed by the block.
// - GasLimit: the block gas limit.
// - BaseFee: the block base fee in wei, nil on pre-EIP-1559 networks.
// - Transactions: block transactions, empty unless requested.
type Block struct {
	Number       uint64
	Hash         common.Hash
	ParentHash   common.Hash
	Timestamp    time.Time
	GasUsed      uint64
	GasLimit     uint64
	BaseFee      *big.Int
	Transactions []BlockTransaction
}

// Utilization returns the block gas utilization ratio in [0,1].
func (b *Block) Utilization() float64 {
	if b.GasLimit == 0 {
		return 0
	}
	return float64(b.GasUsed) / float64(b.GasLimit)
}

// Receipt represents the execution result of a mined transaction.
//
// Fields:
// - TxHash: the hash of the transaction.
// - BlockNumber: the number of the block containing the transaction.
// - BlockHash: the hash of the block containing the transaction.
// - Status: 1 for success, 0 for revert.
// - GasUsed: gas consumed by the transaction.
// - EffectiveGasPrice: the price per gas actually paid, in wei.
type Receipt struct {
	TxHash            common.Hash
	BlockNumber       uint64
	BlockHash         common.Hash
	Status            uint64
	GasUsed           uint64
	EffectiveGasPrice *big.Int
}

// TransactionRequest describes a minimal transaction to broadcast.
//
// Fields:
// - To: the recipient address.
// - Value: the transferred amount in wei.
// - GasPrice: the gas price in wei.
// - GasLimit: the gas limit.
// - Data: optional calldata payload.
type TransactionRequest struct {
	To       common.Address
	Value    *big.Int
	GasPrice *big.Int
	GasLimit uint64
	Data     []byte
}

// LedgerClient provides read and submit access to a ledger node.
// Every method is a potentially slow, potentially failing network call;
// implementations must honor context cancellation.
type LedgerClient interface {
	// BlockNumber returns the current chain height.
	BlockNumber(ctx context.Context) (uint64, error)

	// BlockByNumber returns the block at the given height. When withTxs is
	// false implementations may leave Transactions empty.
	BlockByNumber(ctx context.Context, number uint64, withTxs bool) (*Block, error)

	// TransactionReceipt returns the receipt for a mined transaction, or
	// errors.ErrTxNotFound while the transaction is still pending or unknown.
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error)

	// SuggestGasPrice returns the node's current gas price estimate in wei.
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// BalanceAt returns the current balance of the address in wei.
	BalanceAt(ctx context.Context, address common.Address) (*big.Int, error)

	// SendTransaction signs and broadcasts the request, returning the
	// transaction hash.
	SendTransaction(ctx context.Context, req *TransactionRequest) (common.Hash, error)

	// ChainID returns the identifier of the connected chain.
	ChainID(ctx context.Context) (*big.Int, error)
}
