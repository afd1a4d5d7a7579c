package mongodb

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/anyswap/CrossChain-Settlement/types"
)

// MgoTransaction transaction document, amount is kept as decimal string
type MgoTransaction struct {
	Key              string         `bson:"_id"`
	DepositRef       string         `bson:"depositref"`
	SrcChain         string         `bson:"srcchain"`
	Recipient        string         `bson:"recipient"`
	AmountPaid       string         `bson:"amountpaid"`
	TokenSymbol      string         `bson:"tokensymbol"`
	Status           types.TxStatus `bson:"status"`
	TransferRef      string         `bson:"transferref"`
	FailReason       string         `bson:"failreason"`
	RetryCount       int            `bson:"retrycount"`
	LastRetryAt      int64          `bson:"lastretryat"`
	NextRetryAt      int64          `bson:"nextretryat"`
	RecoveryAttempts int            `bson:"recoveryattempts"`
	LastRecoveryAt   int64          `bson:"lastrecoveryat"`
	LeaseUntil       int64          `bson:"leaseuntil"`
	Version          int64          `bson:"version"`
	InitTime         int64          `bson:"inittime"`
	Timestamp        int64          `bson:"timestamp"`
}

func newMgoTransaction(tx *types.Transaction) *MgoTransaction {
	return &MgoTransaction{
		Key:              tx.ID,
		DepositRef:       tx.DepositRef,
		SrcChain:         tx.SrcChain,
		Recipient:        tx.Recipient,
		AmountPaid:       tx.AmountPaid.String(),
		TokenSymbol:      tx.TokenSymbol,
		Status:           tx.Status,
		TransferRef:      tx.TransferRef,
		FailReason:       tx.FailReason,
		RetryCount:       tx.RetryCount,
		LastRetryAt:      tx.LastRetryAt,
		NextRetryAt:      tx.NextRetryAt,
		RecoveryAttempts: tx.RecoveryAttempts,
		LastRecoveryAt:   tx.LastRecoveryAt,
		LeaseUntil:       tx.LeaseUntil,
		Version:          tx.Version,
		InitTime:         tx.InitTime,
		Timestamp:        tx.Timestamp,
	}
}

// ToTransaction convert document to transaction
func (m *MgoTransaction) ToTransaction() (*types.Transaction, error) {
	amount, err := decimal.NewFromString(m.AmountPaid)
	if err != nil {
		return nil, fmt.Errorf("wrong amount '%v' of %v: %w", m.AmountPaid, m.Key, err)
	}
	return &types.Transaction{
		ID:               m.Key,
		DepositRef:       m.DepositRef,
		SrcChain:         m.SrcChain,
		Recipient:        m.Recipient,
		AmountPaid:       amount,
		TokenSymbol:      m.TokenSymbol,
		Status:           m.Status,
		TransferRef:      m.TransferRef,
		FailReason:       m.FailReason,
		RetryCount:       m.RetryCount,
		LastRetryAt:      m.LastRetryAt,
		NextRetryAt:      m.NextRetryAt,
		RecoveryAttempts: m.RecoveryAttempts,
		LastRecoveryAt:   m.LastRecoveryAt,
		LeaseUntil:       m.LeaseUntil,
		Version:          m.Version,
		InitTime:         m.InitTime,
		Timestamp:        m.Timestamp,
	}, nil
}
