package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/types"
)

func failedConfirmation(tx *types.Transaction) {
	tx.Status = types.FailedPaymentConfirmation
	tx.RetryCount = 3
	tx.FailReason = "retries exhausted after 3 attempts: rpc timeout"
}

func verifierFactory(v tokens.Verifier, built *int) VerifierFactory {
	return func() (tokens.Verifier, error) {
		*built++
		return v, nil
	}
}

func TestRecoverySuccess(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tx := addTx(t, store, "0xaaa", testStart.Add(-25*time.Hour), failedConfirmation)

	built := 0
	w := NewRecoveryWorker(store, verifierFactory(&fakeVerifier{}, &built), newTestClock(), defaultRecoveryOptions())
	summary, err := w.ProcessStuckTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scanned)
	assert.Equal(t, 1, summary.Recovered)
	assert.Equal(t, 1, built, "verifier is built fresh for the attempt")

	got := reload(t, store, tx.ID)
	assert.Equal(t, types.AwaitingPaymentConfirmation, got.Status)
	assert.Equal(t, 0, got.RetryCount)
	assert.Empty(t, got.FailReason)
	assert.Equal(t, 1, got.RecoveryAttempts)
	assert.Equal(t, testStart.Unix(), got.LastRecoveryAt)
}

func TestRecoverySkipsYoungRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	addTx(t, store, "0xaaa", testStart.Add(-23*time.Hour), failedConfirmation)

	verifier := &fakeVerifier{}
	built := 0
	summary, err := NewRecoveryWorker(store, verifierFactory(verifier, &built), newTestClock(), defaultRecoveryOptions()).ProcessStuckTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Scanned)
	assert.Equal(t, 0, verifier.callCount())
}

func TestRecoveryTransientFailureThenCeiling(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	clock := newTestClock()
	tx := addTx(t, store, "0xaaa", testStart.Add(-25*time.Hour), failedConfirmation)

	verifier := &fakeVerifier{fn: failVerify(errors.New("rpc timeout"))}
	built := 0
	w := NewRecoveryWorker(store, verifierFactory(verifier, &built), clock, defaultRecoveryOptions())

	summary, err := w.ProcessStuckTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.StillFailed)
	require.Len(t, summary.Errors, 1)
	got := reload(t, store, tx.ID)
	assert.Equal(t, types.FailedPaymentConfirmation, got.Status)
	assert.Equal(t, 1, got.RecoveryAttempts)
	assert.Contains(t, got.FailReason, "recovery attempt 1 failed")

	// not aged again yet
	clock.Advance(time.Hour)
	summary, err = w.ProcessStuckTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Scanned)

	clock.Advance(24 * time.Hour)
	summary, err = w.ProcessStuckTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PermanentlyFailed)
	got = reload(t, store, tx.ID)
	assert.Equal(t, types.FailedPaymentConfirmation, got.Status)
	assert.Equal(t, 2, got.RecoveryAttempts)
	assert.Contains(t, got.FailReason, "permanently failed")
	assert.Equal(t, 1, verifier.callCount(), "no verification at the ceiling")

	clock.Advance(48 * time.Hour)
	summary, err = w.ProcessStuckTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Scanned)
	assert.Equal(t, 2, reload(t, store, tx.ID).RecoveryAttempts)
}

func TestRecoveryPermanentFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tx := addTx(t, store, "0xaaa", testStart.Add(-25*time.Hour), failedConfirmation)

	opts := defaultRecoveryOptions()
	opts.MaxRecoveryAttempts = 5
	verifier := &fakeVerifier{fn: failVerify(tokens.NewBusinessFailure("", "unsupported token FOO"))}
	built := 0
	summary, err := NewRecoveryWorker(store, verifierFactory(verifier, &built), newTestClock(), opts).ProcessStuckTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PermanentlyFailed)

	got := reload(t, store, tx.ID)
	assert.Equal(t, types.FailedPaymentConfirmation, got.Status)
	assert.Equal(t, 5, got.RecoveryAttempts)
	assert.Contains(t, got.FailReason, "unsupported token")
}

func TestRecoveryFactoryError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tx := addTx(t, store, "0xaaa", testStart.Add(-25*time.Hour), failedConfirmation)

	factory := func() (tokens.Verifier, error) { return nil, errors.New("source gateway is not configured") }
	summary, err := NewRecoveryWorker(store, factory, newTestClock(), defaultRecoveryOptions()).ProcessStuckTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.StillFailed)
	assert.Equal(t, 1, reload(t, store, tx.ID).RecoveryAttempts)
}

func TestRecoveryAttemptsNeverExceedCeiling(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	clock := newTestClock()
	var ids []string
	for _, ref := range []string{"0x1", "0x2", "0x3"} {
		ids = append(ids, addTx(t, store, ref, testStart.Add(-25*time.Hour), failedConfirmation).ID)
	}

	verifier := &fakeVerifier{fn: failVerify(errors.New("node is syncing"))}
	built := 0
	opts := defaultRecoveryOptions()
	opts.MaxRecoveryAttempts = 3
	w := NewRecoveryWorker(store, verifierFactory(verifier, &built), clock, opts)
	for i := 0; i < 10; i++ {
		_, err := w.ProcessStuckTransactions(ctx)
		require.NoError(t, err)
		clock.Advance(25 * time.Hour)
	}
	for _, id := range ids {
		assert.Equal(t, 3, reload(t, store, id).RecoveryAttempts)
	}
}

func TestRecoveredTransactionGetsSecondLife(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	clock := newTestClock()
	tx := addTx(t, store, "0xaaa", testStart.Add(-25*time.Hour), failedConfirmation)

	built := 0
	verifier := &fakeVerifier{}
	_, err := NewRecoveryWorker(store, verifierFactory(verifier, &built), clock, defaultRecoveryOptions()).ProcessStuckTransactions(ctx)
	require.NoError(t, err)

	summary, err := NewVerifyWorker(store, verifier, clock, defaultVerifyOptions()).ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Verified)
	assert.Equal(t, types.PaymentConfirmed, reload(t, store, tx.ID).Status)
}
