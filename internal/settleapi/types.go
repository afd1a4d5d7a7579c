package settleapi

import (
	"github.com/anyswap/CrossChain-Settlement/types"
	"github.com/shopspring/decimal"
)

// ServerInfo server info
type ServerInfo struct {
	Identifier      string
	Version         string
	SrcChainHeight  uint64
	DestChainHeight uint64
	HeightErrors    map[string]string `json:",omitempty"`
}

// TxStatusInfo user visible status of a transaction
type TxStatusInfo struct {
	ID               string
	DepositRef       string
	SrcChain         string
	Recipient        string
	Amount           decimal.Decimal
	Token            string
	Status           types.TxStatus
	StatusName       string
	TransferRef      string `json:",omitempty"`
	FailReason       string `json:",omitempty"`
	RetryCount       int
	RecoveryAttempts int
	InitTime         int64
	Timestamp        int64
}

// StatusCounts number of transactions keyed by status name
type StatusCounts map[string]int

// RegisterArgs deposit registration args
type RegisterArgs struct {
	DepositRef string          `json:"depositRef"`
	SrcChain   string          `json:"srcChain"`
	Recipient  string          `json:"recipient"`
	Amount     decimal.Decimal `json:"amount"`
	Token      string          `json:"token"`
}

// ConvertTransaction convert record to status info
func ConvertTransaction(tx *types.Transaction) *TxStatusInfo {
	return &TxStatusInfo{
		ID:               tx.ID,
		DepositRef:       tx.DepositRef,
		SrcChain:         tx.SrcChain,
		Recipient:        tx.Recipient,
		Amount:           tx.AmountPaid,
		Token:            tx.TokenSymbol,
		Status:           tx.Status,
		StatusName:       tx.Status.String(),
		TransferRef:      tx.TransferRef,
		FailReason:       tx.FailReason,
		RetryCount:       tx.RetryCount,
		RecoveryAttempts: tx.RecoveryAttempts,
		InitTime:         tx.InitTime,
		Timestamp:        tx.Timestamp,
	}
}
