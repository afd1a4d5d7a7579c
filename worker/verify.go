package worker

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/types"
)

const (
	verifyJob      = "verify"
	verifyRetryJob = "verifyretry"
)

// VerifyOptions verify worker options
type VerifyOptions struct {
	BatchSize      int
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	Lease          time.Duration
}

// VerifyWorker moves AwaitingPaymentConfirmation transactions to PaymentConfirmed
type VerifyWorker struct {
	store    Store
	verifier tokens.Verifier
	clock    clockwork.Clock
	opts     VerifyOptions
}

// NewVerifyWorker new verify worker
func NewVerifyWorker(store Store, verifier tokens.Verifier, clock clockwork.Clock, opts VerifyOptions) *VerifyWorker {
	return &VerifyWorker{
		store:    store,
		verifier: verifier,
		clock:    orRealClock(clock),
		opts:     opts,
	}
}

// RetryDelay exponential delay before the next verification of a row
// which already failed retryCount times
func (w *VerifyWorker) RetryDelay(retryCount int) time.Duration {
	return retryDelay(w.opts.RetryBaseDelay, w.opts.RetryMaxDelay, retryCount)
}

// ProcessBatch verify the oldest fresh (never retried) transactions
func (w *VerifyWorker) ProcessBatch(ctx context.Context) (*VerifySummary, error) {
	txs, err := w.store.FindTransactions(ctx, &types.TxFilter{
		Status:      types.AwaitingPaymentConfirmation,
		OnlyFresh:   true,
		LeaseFreeAt: nowUnix(w.clock),
		Limit:       w.opts.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	if len(txs) > 0 {
		logWorkerTrace(verifyJob, "find transactions to verify", "count", len(txs))
	}
	return w.process(ctx, verifyJob, txs), nil
}

// ProcessRetries re-verify retried transactions whose backoff window elapsed
func (w *VerifyWorker) ProcessRetries(ctx context.Context) (*VerifySummary, error) {
	now := nowUnix(w.clock)
	txs, err := w.store.FindTransactions(ctx, &types.TxFilter{
		Status:      types.AwaitingPaymentConfirmation,
		OnlyRetried: true,
		RetryDueAt:  now,
		LeaseFreeAt: now,
		Limit:       w.opts.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	if len(txs) > 0 {
		logWorkerTrace(verifyRetryJob, "find transactions to retry verify", "count", len(txs))
	}
	return w.process(ctx, verifyRetryJob, txs), nil
}

func (w *VerifyWorker) process(ctx context.Context, job string, txs []*types.Transaction) *VerifySummary {
	summary := &VerifySummary{}
	for _, tx := range txs {
		w.processOne(ctx, job, tx, summary)
	}
	return summary
}

func (w *VerifyWorker) processOne(ctx context.Context, job string, tx *types.Transaction, summary *VerifySummary) {
	if !w.claim(ctx, job, tx, summary) {
		return
	}
	summary.Processed++

	verifyErr := verifyTransaction(ctx, w.verifier, tx)

	from := tx.Status
	now := nowUnix(w.clock)
	tx.LeaseUntil = 0
	if verifyErr == nil {
		tx.Status = types.PaymentConfirmed
		tx.RetryCount = 0
		tx.NextRetryAt = 0
		tx.FailReason = ""
	} else {
		retries := tx.RetryCount + 1
		if retries >= w.opts.MaxRetries {
			markExhausted(tx, retries, now)
			tx.Status = types.FailedPaymentConfirmation
			tx.FailReason = tokens.NewExhaustedFailure(retries, verifyErr).Error()
		} else {
			markRetry(tx, retries, now, w.RetryDelay(retries))
			tx.FailReason = verifyErr.Error()
		}
		summary.Errors.add(tx.ID, verifyErr)
		logWorkerWarn(job, "verify payment failed", "id", tx.ID, "depositRef", tx.DepositRef, "retry", retries, "err", verifyErr)
	}

	if err := commit(ctx, w.store, job, tx, from, now); err != nil {
		logWorkerError(job, "update transaction failed", err, "id", tx.ID)
		summary.Errors.add(tx.ID, err)
		return
	}

	switch tx.Status {
	case types.PaymentConfirmed:
		summary.Verified++
	case types.FailedPaymentConfirmation:
		summary.Failed++
	default:
		summary.Retried++
	}
}

// claim lease the row so that concurrent runs skip it
func (w *VerifyWorker) claim(ctx context.Context, job string, tx *types.Transaction, summary *VerifySummary) bool {
	now := nowUnix(w.clock)
	tx.LeaseUntil = now + int64(w.opts.Lease/time.Second)
	tx.Timestamp = now
	err := w.store.UpdateTransaction(ctx, tx)
	switch {
	case err == nil:
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

func verifyTransaction(ctx context.Context, verifier tokens.Verifier, tx *types.Transaction) error {
	if verifier == nil {
		return tokens.ErrNoCollaborator
	}
	res, err := verifier.VerifyPayment(ctx, &tokens.VerifyRequest{
		DepositRef:        tx.DepositRef,
		Chain:             tx.SrcChain,
		Amount:            tx.AmountPaid,
		Token:             tx.TokenSymbol,
		ExpectedRecipient: tx.Recipient,
	})
	if err != nil {
		return err
	}
	if res == nil || !res.Valid {
		return &tokens.Failure{Kind: tokens.KindBusiness, Cause: tokens.ErrPaymentNotValid}
	}
	return nil
}
