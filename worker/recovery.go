package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/types"
)

const recoveryJob = "recovery"

// VerifierFactory builds a verifier from the current configuration
type VerifierFactory func() (tokens.Verifier, error)

// RecoveryOptions recovery worker options
type RecoveryOptions struct {
	BatchSize           int
	MinAge              time.Duration
	MaxRecoveryAttempts int
}

// RecoveryWorker gives failed payment confirmations a bounded number of second lives
type RecoveryWorker struct {
	store       Store
	newVerifier VerifierFactory
	clock       clockwork.Clock
	opts        RecoveryOptions
}

// NewRecoveryWorker new recovery worker
func NewRecoveryWorker(store Store, newVerifier VerifierFactory, clock clockwork.Clock, opts RecoveryOptions) *RecoveryWorker {
	return &RecoveryWorker{
		store:       store,
		newVerifier: newVerifier,
		clock:       orRealClock(clock),
		opts:        opts,
	}
}

// ProcessStuckTransactions re-verify the oldest aged FailedPaymentConfirmation rows
// whose recovery attempts are below the ceiling
func (w *RecoveryWorker) ProcessStuckTransactions(ctx context.Context) (*RecoverySummary, error) {
	now := nowUnix(w.clock)
	txs, err := w.store.FindTransactions(ctx, &types.TxFilter{
		Status:              types.FailedPaymentConfirmation,
		UpdatedBefore:       now - int64(w.opts.MinAge/time.Second),
		MaxRecoveryAttempts: w.opts.MaxRecoveryAttempts,
		Limit:               w.opts.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	if len(txs) > 0 {
		logWorker(recoveryJob, "find failed transactions to recover", "count", len(txs))
	}

	summary := &RecoverySummary{Scanned: len(txs)}
	for _, tx := range txs {
		w.recoverOne(ctx, tx, summary)
	}
	return summary, nil
}

func (w *RecoveryWorker) recoverOne(ctx context.Context, tx *types.Transaction, summary *RecoverySummary) {
	from := tx.Status
	ceiling := w.opts.MaxRecoveryAttempts
	prevReason := tx.FailReason

	// the increment is the claim
	now := nowUnix(w.clock)
	tx.RecoveryAttempts++
	tx.LastRecoveryAt = now
	atCeiling := tx.RecoveryAttempts >= ceiling
	if atCeiling {
		tx.FailReason = fmt.Sprintf("permanently failed: recovery attempts exhausted (%d/%d): %v", tx.RecoveryAttempts, ceiling, prevReason)
	}
	err := commit(ctx, w.store, recoveryJob, tx, from, now)
	switch {
	case err == nil:
	case isVersionConflict(err):
		summary.Skipped++
		return
	default:
		logWorkerError(recoveryJob, "claim transaction failed", err, "id", tx.ID)
		summary.Errors.add(tx.ID, err)
		return
	}
	if atCeiling {
		logWorkerWarn(recoveryJob, "transaction permanently failed", "id", tx.ID, "attempts", tx.RecoveryAttempts)
		summary.PermanentlyFailed++
		return
	}

	verifyErr := w.verify(ctx, tx)

	now = nowUnix(w.clock)
	if verifyErr == nil {
		tx.Status = types.AwaitingPaymentConfirmation
		tx.RetryCount = 0
		tx.LastRetryAt = 0
		tx.NextRetryAt = 0
		tx.LeaseUntil = 0
		tx.FailReason = ""
	} else {
		if tokens.IsPermanent(verifyErr) {
			tx.RecoveryAttempts = ceiling
			tx.FailReason = "permanently failed: " + verifyErr.Error()
		} else {
			tx.FailReason = fmt.Sprintf("recovery attempt %d failed: %v", tx.RecoveryAttempts, verifyErr)
		}
		summary.Errors.add(tx.ID, verifyErr)
	}

	if err := commit(ctx, w.store, recoveryJob, tx, from, now); err != nil {
		logWorkerError(recoveryJob, "update transaction failed", err, "id", tx.ID)
		summary.Errors.add(tx.ID, err)
		return
	}

	switch {
	case verifyErr == nil:
		logWorker(recoveryJob, "transaction recovered", "id", tx.ID, "depositRef", tx.DepositRef)
		summary.Recovered++
	case tx.RecoveryAttempts >= ceiling:
		logWorkerWarn(recoveryJob, "transaction permanently failed", "id", tx.ID, "err", verifyErr)
		summary.PermanentlyFailed++
	default:
		logWorkerWarn(recoveryJob, "transaction still failed", "id", tx.ID, "attempts", tx.RecoveryAttempts, "err", verifyErr)
		summary.StillFailed++
	}
}

// verify with a verifier built from the current configuration,
// the original failure may have been caused by the environment
func (w *RecoveryWorker) verify(ctx context.Context, tx *types.Transaction) error {
	if w.newVerifier == nil {
		return tokens.ErrNoCollaborator
	}
	verifier, err := w.newVerifier()
	if err != nil {
		return fmt.Errorf("build verifier failed: %w", err)
	}
	return verifyTransaction(ctx, verifier, tx)
}
