package types

import (
	"fmt"
)

// -----------------------------------------------
// transaction status change graph
// symbol '--->' mean transfer only under checked condition
//
// AwaitingPaymentConfirmation -> |- PaymentConfirmed -> TransferPending -> |- Completed
//                                |                                        |- PaymentConfirmed (retry)
//                                |                                        |- FailedTransfer -> manual
//                                |- FailedPaymentConfirmation ---> AwaitingPaymentConfirmation (recovery)
//
// TransferPending (stale) ---> |- PaymentConfirmed
//                              |- FailedTransfer
// -----------------------------------------------

// TxStatus transaction status
type TxStatus uint16

// transaction status values
const (
	AwaitingPaymentConfirmation TxStatus = iota // 0
	PaymentConfirmed                            // 1
	TransferPending                             // 2
	Completed                                   // 3
	FailedPaymentConfirmation                   // 4
	FailedTransfer                              // 5
)

// AllStatuses every known status, in pipeline order
var AllStatuses = []TxStatus{
	AwaitingPaymentConfirmation,
	PaymentConfirmed,
	TransferPending,
	Completed,
	FailedPaymentConfirmation,
	FailedTransfer,
}

// IsFailed is failure status
func (status TxStatus) IsFailed() bool {
	return status == FailedPaymentConfirmation || status == FailedTransfer
}

// IsValid is known status
func (status TxStatus) IsValid() bool {
	return status <= FailedTransfer
}

func (status TxStatus) String() string {
	switch status {
	case AwaitingPaymentConfirmation:
		return "AwaitingPaymentConfirmation"
	case PaymentConfirmed:
		return "PaymentConfirmed"
	case TransferPending:
		return "TransferPending"
	case Completed:
		return "Completed"
	case FailedPaymentConfirmation:
		return "FailedPaymentConfirmation"
	case FailedTransfer:
		return "FailedTransfer"
	default:
		return fmt.Sprintf("unknown tx status %d", status)
	}
}

// ParseTxStatus parse status from its name
func ParseTxStatus(name string) (TxStatus, error) {
	for _, status := range AllStatuses {
		if status.String() == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown tx status name '%v'", name)
}
