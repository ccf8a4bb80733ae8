package errors

import "github.com/pkg/errors"

var (
	ErrNetworkNotFound = errors.New("network not found")
	ErrInvalidConfig   = errors.New("invalid network configuration")
	ErrNetworkExists   = errors.New("network already exists in registry")
	ErrFactoryNotFound = errors.New("adapter factory not provided")
	ErrInvalidClass    = errors.New("invalid network class")
	ErrClientNotSet    = errors.New("ledger client not initialized")
	ErrNotInitialized  = errors.New("adapter not initialized")
	ErrChainIDMismatch = errors.New("live chain id does not match configuration")
	ErrMonitorRunning  = errors.New("monitor is already running")
	ErrTxNotFound      = errors.New("transaction not found")
	ErrTxReverted      = errors.New("transaction reverted")
	ErrWaitTimeout     = errors.New("confirmation wait timed out")
	ErrControllerState = errors.New("controller is not in a valid state for this operation")
	ErrDatabaseConnect = errors.New("failed to connect to database")
	ErrNotImplemented  = errors.New("functionality not implemented")
)
