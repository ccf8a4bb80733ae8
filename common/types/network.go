package types

import (
	"math/big"
	"time"
)

// NetworkClass represents the broad performance class of a network.
type NetworkClass string

const (
	// ClassL1 represents base-layer networks with long block times (e.g. Ethereum mainnet).
	ClassL1 NetworkClass = "L1"
	// ClassL2 represents rollup-style networks with sub-second to few-second blocks.
	ClassL2 NetworkClass = "L2"
)

// String converts NetworkClass to string representation.
func (c NetworkClass) String() string {
	return string(c)
}

// Valid reports whether the class is one of the known network classes.
// The empty class is valid and defers to the network tuning.
func (c NetworkClass) Valid() bool {
	switch c {
	case "", ClassL1, ClassL2:
		return true
	}
	return false
}

// RetryConfig holds retry tuning for transient RPC failures.
//
// Fields:
// - MaxRetries: total number of attempts (not additional retries).
// - BaseDelay: delay before the second attempt.
// - MaxDelay: upper bound for the backoff delay.
// - BackoffMultiplier: multiplier applied to the delay after each attempt.
type RetryConfig struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// NetworkConfig holds the configuration for a specific network adapter.
// It is immutable after construction; the only refinement permitted is
// filling in ChainID once the adapter discovers the live chain identifier.
//
// Fields:
// - Name: the name of the network.
// - Class: the performance class of the network.
// - ChainID: the unique identifier for the network.
// - RpcUrl: the URL for the network's RPC endpoint.
// - BaseGasPrice: the configured baseline gas price in wei.
// - GasFloor: the minimum gas price in wei for submissions.
// - GasLimit: the gas limit used for measurement transactions.
// - ConfirmationTarget: the number of confirmations considered final.
// - MevBaseline: the expected steady-state MEV pressure score (0-100).
// - ExpectedBlockTime: the nominal block interval for the network.
// - Retry: retry tuning for transient RPC failures.
// - Timeout: upper bound for any single blocking wait.
type NetworkConfig struct {
	Name               string
	Class              NetworkClass
	ChainID            uint64
	RpcUrl             string
	BaseGasPrice       *big.Int
	GasFloor           *big.Int
	GasLimit           uint64
	ConfirmationTarget uint64
	MevBaseline        float64
	ExpectedBlockTime  time.Duration
	Retry              RetryConfig
	Timeout            time.Duration
}
