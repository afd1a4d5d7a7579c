package types

import "errors"

// storage errors shared by all store implementations
var (
	ErrTxNotFound        = errors.New("transaction not found")
	ErrTxIsDup           = errors.New("transaction with the same deposit reference exists")
	ErrTxVersionConflict = errors.New("transaction was modified concurrently")
	ErrTxInvalid         = errors.New("invalid transaction")
)
