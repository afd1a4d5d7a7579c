package types

import "sort"

// TxFilter candidate selection of a worker scan.
// Zero valued constraints are not applied.
type TxFilter struct {
	Status TxStatus

	OnlyFresh   bool // retry count is 0
	OnlyRetried bool // retry count is greater than 0

	UpdatedBefore       int64 // timestamp <= UpdatedBefore
	RetryDueAt          int64 // nextRetryAt <= RetryDueAt
	MaxRecoveryAttempts int   // recoveryAttempts < MaxRecoveryAttempts
	LeaseFreeAt         int64 // leaseUntil <= LeaseFreeAt

	Limit int
}

// Match returns whether the transaction satisfies the filter
func (f *TxFilter) Match(tx *Transaction) bool {
	switch {
	case tx.Status != f.Status:
	case f.OnlyFresh && tx.RetryCount != 0:
	case f.OnlyRetried && tx.RetryCount == 0:
	case f.UpdatedBefore > 0 && tx.Timestamp > f.UpdatedBefore:
	case f.RetryDueAt > 0 && tx.NextRetryAt > f.RetryDueAt:
	case f.MaxRecoveryAttempts > 0 && tx.RecoveryAttempts >= f.MaxRecoveryAttempts:
	case f.LeaseFreeAt > 0 && tx.LeaseUntil > f.LeaseFreeAt:
	default:
		return true
	}
	return false
}

// SortOldestFirst sort by creation time, then by id
func SortOldestFirst(txs []*Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].InitTime != txs[j].InitTime {
			return txs[i].InitTime < txs[j].InitTime
		}
		return txs[i].ID < txs[j].ID
	})
}
