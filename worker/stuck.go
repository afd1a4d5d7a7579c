package worker

import (
	"context"
	"fmt"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/types"
)

const stuckJob = "stuck"

// ProcessStuck revert or fail transfers pending longer than the staleness threshold
func (w *TransferWorker) ProcessStuck(ctx context.Context) (*StuckSummary, error) {
	now := nowUnix(w.clock)
	staleSeconds := int64(w.opts.StaleAfter.Seconds())
	txs, err := w.store.FindTransactions(ctx, &types.TxFilter{
		Status:        types.TransferPending,
		UpdatedBefore: now - staleSeconds,
		Limit:         w.opts.BatchSize,
	})
	if err != nil {
		return nil, err
	}

	summary := &StuckSummary{Scanned: len(txs)}
	for _, tx := range txs {
		from := tx.Status
		stuckErr := fmt.Errorf("transfer pending for more than %d seconds", staleSeconds)
		retries := tx.RetryCount + 1
		if retries >= w.opts.MaxRetries {
			markExhausted(tx, retries, now)
			tx.Status = types.FailedTransfer
			tx.FailReason = tokens.NewExhaustedFailure(retries, stuckErr).Error()
		} else {
			markRetry(tx, retries, now, w.RetryDelay(retries))
			tx.Status = types.PaymentConfirmed
			tx.FailReason = stuckErr.Error()
		}

		err := commit(ctx, w.store, stuckJob, tx, from, now)
		switch {
		case err == nil:
		case isVersionConflict(err):
			summary.Skipped++
			continue
		default:
			logWorkerError(stuckJob, "update stuck transaction failed", err, "id", tx.ID)
			summary.Errors.add(tx.ID, err)
			continue
		}
		logWorkerWarn(stuckJob, "found stuck transfer", "id", tx.ID, "status", tx.Status, "retry", retries)
		if tx.Status == types.FailedTransfer {
			summary.Failed++
		} else {
			summary.Reverted++
		}
	}
	return summary, nil
}
