package tokens

import (
	"errors"
	"fmt"
)

// common errors
var (
	ErrPaymentNotValid    = errors.New("payment not valid")
	ErrNotEnoughConfirms  = errors.New("not enough confirmations")
	ErrMissingBatchResult = errors.New("missing result in batch transfer")
	ErrEmptyTransferRef   = errors.New("transfer succeeded without transfer ref")
	ErrNoCollaborator     = errors.New("collaborator not configured")
)

// FailureKind failure category deciding the retry policy
type FailureKind int

// failure kinds
const (
	KindNone      FailureKind = iota
	KindTransport             // unreachable, timeout or malformed reply, retried by the gateway
	KindBusiness              // collaborator reports invalid, retried per transaction
	KindPermanent             // never retried automatically
	KindExhausted             // retry budget used up
)

func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindTransport:
		return "Transport"
	case KindBusiness:
		return "Business"
	case KindPermanent:
		return "Permanent"
	case KindExhausted:
		return "Exhausted"
	default:
		return fmt.Sprintf("unknown failure kind %d", int(k))
	}
}

// Failure structured collaborator failure
type Failure struct {
	Kind    FailureKind
	Code    string
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	msg := f.Message
	if msg == "" && f.Cause != nil {
		msg = f.Cause.Error()
	}
	if f.Code != "" {
		return fmt.Sprintf("%v failure [%v]: %v", f.Kind, f.Code, msg)
	}
	return fmt.Sprintf("%v failure: %v", f.Kind, msg)
}

// Unwrap returns the cause
func (f *Failure) Unwrap() error {
	return f.Cause
}

// NewBusinessFailure collaborator reported failure
func NewBusinessFailure(code, message string) *Failure {
	return &Failure{Kind: KindBusiness, Code: code, Message: message}
}

// NewPermanentFailure failure that must not be retried
func NewPermanentFailure(code, message string) *Failure {
	return &Failure{Kind: KindPermanent, Code: code, Message: message}
}

// NewExhaustedFailure wraps the last failure after the retry budget is used up
func NewExhaustedFailure(retries int, last error) *Failure {
	return &Failure{
		Kind:    KindExhausted,
		Message: fmt.Sprintf("retries exhausted after %d attempts: %v", retries, last),
		Cause:   last,
	}
}
