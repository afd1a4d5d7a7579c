package worker

import (
	"context"
	"errors"

	"github.com/anyswap/CrossChain-Settlement/types"
)

// Store transaction storage used by the workers.
// UpdateTransaction must fail with types.ErrTxVersionConflict if the stored
// version differs from tx.Version, and increase tx.Version on success.
type Store interface {
	FindTransactions(ctx context.Context, filter *types.TxFilter) ([]*types.Transaction, error)
	FindTransaction(ctx context.Context, id string) (*types.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *types.Transaction) error
	CountTransactionsByStatus(ctx context.Context) (map[types.TxStatus]int, error)
}

func isVersionConflict(err error) bool {
	return errors.Is(err, types.ErrTxVersionConflict)
}

// commit persist tx and count the transition
func commit(ctx context.Context, store Store, job string, tx *types.Transaction, from types.TxStatus, now int64) error {
	tx.Timestamp = now
	if err := store.UpdateTransaction(ctx, tx); err != nil {
		return err
	}
	if from != tx.Status {
		transitionsCounter.WithLabelValues(job, from.String(), tx.Status.String()).Inc()
		logWorker(job, "transaction status changed", "id", tx.ID, "from", from, "to", tx.Status, "retry", tx.RetryCount)
	}
	return nil
}
