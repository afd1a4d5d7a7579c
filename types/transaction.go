// Package types defines the settlement transaction record.
package types

import (
	"fmt"
	"strings"

	"github.com/pborman/uuid"
	"github.com/shopspring/decimal"
)

// Transaction one user swap moving through the settlement pipeline.
// TransferRef and FailReason are empty when absent.
type Transaction struct {
	ID               string          `json:"id"`
	DepositRef       string          `json:"depositRef"`
	SrcChain         string          `json:"srcChain"`
	Recipient        string          `json:"recipient"`
	AmountPaid       decimal.Decimal `json:"amountPaid"`
	TokenSymbol      string          `json:"tokenSymbol"`
	Status           TxStatus        `json:"status"`
	TransferRef      string          `json:"transferRef,omitempty"`
	FailReason       string          `json:"failReason,omitempty"`
	RetryCount       int             `json:"retryCount"`
	LastRetryAt      int64           `json:"lastRetryAt"`
	NextRetryAt      int64           `json:"nextRetryAt"`
	RecoveryAttempts int             `json:"recoveryAttempts"`
	LastRecoveryAt   int64           `json:"lastRecoveryAt"`
	LeaseUntil       int64           `json:"leaseUntil"`
	Version          int64           `json:"version"`
	InitTime         int64           `json:"initTime"`
	Timestamp        int64           `json:"timestamp"`
}

// NewTransaction creates a transaction in the initial status
func NewTransaction(depositRef, srcChain, recipient string, amount decimal.Decimal, token string, now int64) (*Transaction, error) {
	tx := &Transaction{
		ID:          uuid.New(),
		DepositRef:  strings.TrimSpace(depositRef),
		SrcChain:    srcChain,
		Recipient:   strings.TrimSpace(recipient),
		AmountPaid:  amount,
		TokenSymbol: token,
		Status:      AwaitingPaymentConfirmation,
		InitTime:    now,
		Timestamp:   now,
	}
	if err := tx.CheckFields(); err != nil {
		return nil, err
	}
	return tx, nil
}

// CheckFields check required fields and status invariants
func (tx *Transaction) CheckFields() error {
	switch {
	case tx.ID == "":
		return fmt.Errorf("%w: empty id", ErrTxInvalid)
	case tx.DepositRef == "":
		return fmt.Errorf("%w: empty deposit reference", ErrTxInvalid)
	case tx.Recipient == "":
		return fmt.Errorf("%w: empty recipient", ErrTxInvalid)
	case !tx.AmountPaid.IsPositive():
		return fmt.Errorf("%w: non positive amount %v", ErrTxInvalid, tx.AmountPaid)
	case !tx.Status.IsValid():
		return fmt.Errorf("%w: %v", ErrTxInvalid, tx.Status)
	}
	if tx.Status == Completed && (tx.TransferRef == "" || tx.FailReason != "") {
		return fmt.Errorf("%w: completed without transfer reference or with fail reason", ErrTxInvalid)
	}
	return nil
}

// Clone returns a copy which can be mutated independently
func (tx *Transaction) Clone() *Transaction {
	cpy := *tx
	return &cpy
}

// String for logging
func (tx *Transaction) String() string {
	return fmt.Sprintf("tx{id=%v deposit=%v status=%v retry=%v recovery=%v version=%v}",
		tx.ID, tx.DepositRef, tx.Status, tx.RetryCount, tx.RecoveryAttempts, tx.Version)
}
