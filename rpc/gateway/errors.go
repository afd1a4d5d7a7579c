package gateway

import (
	"errors"
	"fmt"
)

// RPCError gateway call failure, wraps the last cause
type RPCError struct {
	Gateway  string
	Method   string
	Endpoint string
	Attempts int
	Cause    error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc call '%v' on '%v' failed after %d attempts (endpoint %v): %v",
		e.Method, e.Gateway, e.Attempts, e.Endpoint, e.Cause)
}

// Unwrap returns the last cause
func (e *RPCError) Unwrap() error {
	return e.Cause
}

// IsRPCError is gateway error
func IsRPCError(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr)
}
