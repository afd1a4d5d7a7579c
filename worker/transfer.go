package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/types"
)

const (
	transferJob      = "transfer"
	transferRetryJob = "transferretry"
)

// TransferOptions transfer worker options
type TransferOptions struct {
	BatchSize      int
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	StaleAfter     time.Duration
	BulkSize       int
}

// TransferWorker moves PaymentConfirmed transactions to Completed
type TransferWorker struct {
	store       Store
	transferrer tokens.Transferrer
	batcher     tokens.BatchTransferrer
	clock       clockwork.Clock
	opts        TransferOptions
}

// NewTransferWorker new transfer worker, batcher may be nil
func NewTransferWorker(store Store, transferrer tokens.Transferrer, batcher tokens.BatchTransferrer, clock clockwork.Clock, opts TransferOptions) *TransferWorker {
	return &TransferWorker{
		store:       store,
		transferrer: transferrer,
		batcher:     batcher,
		clock:       orRealClock(clock),
		opts:        opts,
	}
}

// RetryDelay exponential delay before the next transfer of a row
// which already failed retryCount times
func (w *TransferWorker) RetryDelay(retryCount int) time.Duration {
	return retryDelay(w.opts.RetryBaseDelay, w.opts.RetryMaxDelay, retryCount)
}

// ProcessBatch transfer the oldest fresh (never retried) confirmed transactions one by one
func (w *TransferWorker) ProcessBatch(ctx context.Context) (*TransferSummary, error) {
	txs, err := w.store.FindTransactions(ctx, &types.TxFilter{
		Status:    types.PaymentConfirmed,
		OnlyFresh: true,
		Limit:     w.opts.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	if len(txs) > 0 {
		logWorkerTrace(transferJob, "find transactions to transfer", "count", len(txs))
	}
	return w.process(ctx, transferJob, txs), nil
}

// ProcessRetries re-transfer retried confirmed transactions whose backoff window elapsed
func (w *TransferWorker) ProcessRetries(ctx context.Context) (*TransferSummary, error) {
	txs, err := w.store.FindTransactions(ctx, &types.TxFilter{
		Status:      types.PaymentConfirmed,
		OnlyRetried: true,
		RetryDueAt:  nowUnix(w.clock),
		Limit:       w.opts.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	if len(txs) > 0 {
		logWorkerTrace(transferRetryJob, "find transactions to retry transfer", "count", len(txs))
	}
	return w.process(ctx, transferRetryJob, txs), nil
}

func (w *TransferWorker) process(ctx context.Context, job string, txs []*types.Transaction) *TransferSummary {
	summary := &TransferSummary{}
	for _, tx := range txs {
		if !w.claim(ctx, job, tx, summary) {
			continue
		}
		if w.transferrer == nil {
			w.onFailure(ctx, job, tx, tokens.ErrNoCollaborator, summary)
			continue
		}
		res, err := w.transferrer.TransferFunds(ctx, tx.Recipient, tx.AmountPaid, transferContext(tx))
		transferRef := ""
		if res != nil {
			transferRef = res.TransferRef
		}
		w.onResult(ctx, job, tx, transferRef, err, summary)
	}
	return summary
}

// claim moves the row to TransferPending before the external call,
// a crash afterwards leaves it visible as in flight
func (w *TransferWorker) claim(ctx context.Context, job string, tx *types.Transaction, summary *TransferSummary) bool {
	from := tx.Status
	tx.Status = types.TransferPending
	err := commit(ctx, w.store, job, tx, from, nowUnix(w.clock))
	switch {
	case err == nil:
		summary.Processed++
		return true
	case isVersionConflict(err):
		logWorkerTrace(job, "transaction claimed by others", "id", tx.ID)
		summary.Skipped++
	default:
		logWorkerError(job, "claim transaction failed", err, "id", tx.ID)
		summary.Errors.add(tx.ID, err)
	}
	return false
}

func (w *TransferWorker) onResult(ctx context.Context, job string, tx *types.Transaction, transferRef string, err error, summary *TransferSummary) {
	if err == nil && transferRef == "" {
		err = &tokens.Failure{Kind: tokens.KindBusiness, Cause: tokens.ErrEmptyTransferRef}
	}
	if err != nil {
		w.onFailure(ctx, job, tx, err, summary)
		return
	}
	w.onSuccess(ctx, job, tx, transferRef, summary)
}

func (w *TransferWorker) onSuccess(ctx context.Context, job string, tx *types.Transaction, transferRef string, summary *TransferSummary) {
	logWorker(job, "transfer funds success", "id", tx.ID, "recipient", tx.Recipient, "amount", tx.AmountPaid, "transferRef", transferRef)
	err := w.complete(ctx, job, tx, transferRef)
	if err == nil {
		summary.Completed++
		return
	}
	if !isVersionConflict(err) {
		logWorkerError(job, "record completed transfer failed", err, "id", tx.ID, "transferRef", transferRef)
		summary.Errors.addCritical(tx.ID, fmt.Errorf("transfer %v succeeded but was not recorded: %w", transferRef, err))
		return
	}

	// the row changed while the transfer was in flight, the funds moved anyway
	current, err := w.store.FindTransaction(ctx, tx.ID)
	if err == nil {
		switch current.Status {
		case types.PaymentConfirmed, types.TransferPending:
			if err = w.complete(ctx, job, current, transferRef); err == nil {
				logWorkerWarn(job, "recorded late transfer success", "id", tx.ID, "transferRef", transferRef)
				summary.Completed++
				return
			}
		default:
			err = fmt.Errorf("transaction is already %v", current.Status)
		}
	}
	logWorkerError(job, "late transfer success conflicts with current status", err, "id", tx.ID, "transferRef", transferRef)
	summary.Errors.addCritical(tx.ID, fmt.Errorf("transfer %v succeeded but was not recorded, possible double transfer: %w", transferRef, err))
}

func (w *TransferWorker) complete(ctx context.Context, job string, tx *types.Transaction, transferRef string) error {
	from := tx.Status
	tx.Status = types.Completed
	tx.TransferRef = transferRef
	tx.FailReason = ""
	tx.RetryCount = 0
	tx.NextRetryAt = 0
	return commit(ctx, w.store, job, tx, from, nowUnix(w.clock))
}

func (w *TransferWorker) onFailure(ctx context.Context, job string, tx *types.Transaction, transferErr error, summary *TransferSummary) {
	from := tx.Status
	now := nowUnix(w.clock)
	kind := tokens.Classify(transferErr)
	retries := tx.RetryCount + 1
	switch {
	case kind == tokens.KindPermanent:
		tx.Status = types.FailedTransfer
		tx.NextRetryAt = 0
		tx.FailReason = transferErr.Error()
	case retries >= w.opts.MaxRetries:
		markExhausted(tx, retries, now)
		tx.Status = types.FailedTransfer
		tx.FailReason = tokens.NewExhaustedFailure(retries, transferErr).Error()
	default:
		markRetry(tx, retries, now, w.RetryDelay(retries))
		tx.Status = types.PaymentConfirmed
		tx.FailReason = transferErr.Error()
	}
	logWorkerWarn(job, "transfer funds failed", "id", tx.ID, "kind", kind, "retry", tx.RetryCount, "err", transferErr)
	summary.Errors.add(tx.ID, transferErr)

	if err := commit(ctx, w.store, job, tx, from, now); err != nil {
		logWorkerError(job, "update transaction failed", err, "id", tx.ID)
		summary.Errors.add(tx.ID, err)
		return
	}
	if tx.Status == types.FailedTransfer {
		summary.Failed++
	} else {
		summary.Retried++
	}
}

func transferContext(tx *types.Transaction) *tokens.TransferContext {
	return &tokens.TransferContext{
		TxID:       tx.ID,
		DepositRef: tx.DepositRef,
		SrcChain:   tx.SrcChain,
		Token:      tx.TokenSymbol,
	}
}
