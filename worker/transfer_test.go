package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/types"
)

func confirmed(tx *types.Transaction) {
	tx.Status = types.PaymentConfirmed
}

func TestTransferSuccess(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tx := addTx(t, store, "0xaaa", testStart, confirmed)

	var statusDuringCall types.TxStatus
	transferrer := &fakeTransferrer{fn: func(recipient string, amount decimal.Decimal, tctx *tokens.TransferContext) (*tokens.TransferResult, error) {
		statusDuringCall = reload(t, store, tx.ID).Status
		assert.Equal(t, "0xrecipient", recipient)
		assert.Equal(t, tx.ID, tctx.TxID)
		assert.Equal(t, "0xaaa", tctx.DepositRef)
		return &tokens.TransferResult{TransferRef: "0xbbb"}, nil
	}}
	w := NewTransferWorker(store, transferrer, nil, newTestClock(), defaultTransferOptions())
	summary, err := w.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Completed)

	assert.Equal(t, types.TransferPending, statusDuringCall)
	got := reload(t, store, tx.ID)
	assert.Equal(t, types.Completed, got.Status)
	assert.Equal(t, "0xbbb", got.TransferRef)
	assert.Empty(t, got.FailReason)
	assert.Equal(t, 0, got.RetryCount)
}

func TestTransferPermanentFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tx := addTx(t, store, "0xaaa", testStart, confirmed)

	transferrer := &fakeTransferrer{fn: transferFail(errors.New("transfer failed: wallet not configured"))}
	summary, err := NewTransferWorker(store, transferrer, nil, newTestClock(), defaultTransferOptions()).ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	got := reload(t, store, tx.ID)
	assert.Equal(t, types.FailedTransfer, got.Status)
	assert.Equal(t, 0, got.RetryCount)
	assert.Contains(t, got.FailReason, "wallet not configured")
	assert.Empty(t, got.TransferRef)
}

func TestTransferStructuredPermanentFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tx := addTx(t, store, "0xaaa", testStart, confirmed)

	transferrer := &fakeTransferrer{fn: transferFail(tokens.NewBusinessFailure("INVALID_RECIPIENT", "recipient rejected"))}
	_, err := NewTransferWorker(store, transferrer, nil, newTestClock(), defaultTransferOptions()).ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.FailedTransfer, reload(t, store, tx.ID).Status)
}

func TestTransferRetriesThenFails(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	clock := newTestClock()
	tx := addTx(t, store, "0xaaa", testStart, confirmed)

	transferrer := &fakeTransferrer{fn: transferFail(errors.New("connection reset by peer"))}
	w := NewTransferWorker(store, transferrer, nil, clock, defaultTransferOptions())

	summary, err := w.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Retried)
	got := reload(t, store, tx.ID)
	assert.Equal(t, types.PaymentConfirmed, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, testStart.Add(time.Minute).Unix(), got.NextRetryAt)

	// a retried row waits for its backoff window, whichever scan runs
	for i := 0; i < 3; i++ {
		summary, err = w.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Processed)
		summary, err = w.ProcessRetries(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Processed)
	}
	assert.Equal(t, 1, transferrer.callCount())

	clock.Advance(time.Minute)
	summary, err = w.ProcessRetries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Retried)
	got = reload(t, store, tx.ID)
	assert.Equal(t, 2, got.RetryCount)
	assert.Equal(t, testStart.Add(3*time.Minute).Unix(), got.NextRetryAt)

	clock.Advance(time.Minute)
	summary, err = w.ProcessRetries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)

	clock.Advance(time.Minute)
	summary, err = w.ProcessRetries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	got = reload(t, store, tx.ID)
	assert.Equal(t, types.FailedTransfer, got.Status)
	assert.Equal(t, 3, got.RetryCount)
	assert.Equal(t, int64(0), got.NextRetryAt)
	assert.Contains(t, got.FailReason, "retries exhausted")
	assert.Equal(t, 3, transferrer.callCount())
}

func TestTransferRetryDelay(t *testing.T) {
	w := NewTransferWorker(newTestStore(t), nil, nil, newTestClock(), defaultTransferOptions())
	assert.Equal(t, time.Duration(0), w.RetryDelay(0))
	assert.Equal(t, time.Minute, w.RetryDelay(1))
	assert.Equal(t, 2*time.Minute, w.RetryDelay(2))
	assert.Equal(t, time.Hour, w.RetryDelay(20))
}

func TestTransferEmptyRefIsFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tx := addTx(t, store, "0xaaa", testStart, confirmed)

	transferrer := &fakeTransferrer{fn: transferOK("")}
	_, err := NewTransferWorker(store, transferrer, nil, newTestClock(), defaultTransferOptions()).ProcessBatch(ctx)
	require.NoError(t, err)

	got := reload(t, store, tx.ID)
	assert.Equal(t, types.PaymentConfirmed, got.Status)
	assert.Equal(t, 1, got.RetryCount)
}

func TestTransferLateSuccessAfterStuckRevert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	clock := newTestClock()
	tx := addTx(t, store, "0xaaa", testStart, confirmed)

	transferrer := &fakeTransferrer{fn: func(string, decimal.Decimal, *tokens.TransferContext) (*tokens.TransferResult, error) {
		// the stuck sweep reverts the row while the call is in flight
		current := reload(t, store, tx.ID)
		current.Status = types.PaymentConfirmed
		current.RetryCount = 1
		require.NoError(t, store.UpdateTransaction(ctx, current))
		return &tokens.TransferResult{TransferRef: "0xbbb"}, nil
	}}
	summary, err := NewTransferWorker(store, transferrer, nil, clock, defaultTransferOptions()).ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)
	assert.Empty(t, summary.Errors)

	got := reload(t, store, tx.ID)
	assert.Equal(t, types.Completed, got.Status)
	assert.Equal(t, "0xbbb", got.TransferRef)
	assert.Equal(t, 0, got.RetryCount)
}

func TestTransferLateSuccessConflict(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tx := addTx(t, store, "0xaaa", testStart, confirmed)

	transferrer := &fakeTransferrer{fn: func(string, decimal.Decimal, *tokens.TransferContext) (*tokens.TransferResult, error) {
		current := reload(t, store, tx.ID)
		current.Status = types.FailedTransfer
		current.FailReason = "operator cancelled"
		require.NoError(t, store.UpdateTransaction(ctx, current))
		return &tokens.TransferResult{TransferRef: "0xbbb"}, nil
	}}
	summary, err := NewTransferWorker(store, transferrer, nil, newTestClock(), defaultTransferOptions()).ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Completed)
	require.Len(t, summary.Errors, 1)
	assert.True(t, summary.Errors[0].Critical)
	assert.True(t, summary.needAlert())
	assert.Equal(t, types.FailedTransfer, reload(t, store, tx.ID).Status)
}

func TestTransferConcurrentBatchesClaimOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	clock := newTestClock()
	tx := addTx(t, store, "0xaaa", testStart, confirmed)

	transferrer := &fakeTransferrer{fn: transferOK("0xbbb")}
	const runs = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := NewTransferWorker(store, transferrer, nil, clock, defaultTransferOptions())
			summary, err := w.ProcessBatch(ctx)
			assert.NoError(t, err)
			mu.Lock()
			completed += summary.Completed
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, transferrer.callCount())
	assert.Equal(t, types.Completed, reload(t, store, tx.ID).Status)
}

func TestProcessStuck(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	clock := newTestClock()
	old := testStart.Add(-11 * time.Minute)
	stuck := addTx(t, store, "0x1", old, func(tx *types.Transaction) {
		tx.Status = types.TransferPending
	})
	exhausted := addTx(t, store, "0x2", old, func(tx *types.Transaction) {
		tx.Status = types.TransferPending
		tx.RetryCount = 2
	})
	recent := addTx(t, store, "0x3", testStart.Add(-time.Minute), func(tx *types.Transaction) {
		tx.Status = types.TransferPending
	})

	w := NewTransferWorker(store, &fakeTransferrer{}, nil, clock, defaultTransferOptions())
	summary, err := w.ProcessStuck(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 1, summary.Reverted)
	assert.Equal(t, 1, summary.Failed)

	got := reload(t, store, stuck.ID)
	assert.Equal(t, types.PaymentConfirmed, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, testStart.Add(time.Minute).Unix(), got.NextRetryAt)

	got = reload(t, store, exhausted.ID)
	assert.Equal(t, types.FailedTransfer, got.Status)
	assert.Equal(t, 3, got.RetryCount)

	assert.Equal(t, types.TransferPending, reload(t, store, recent.ID).Status)

	// re-running without elapsed time changes nothing
	summary, err = w.ProcessStuck(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Scanned)
	assert.Equal(t, 1, reload(t, store, stuck.ID).RetryCount)
}

func TestProcessBatchTransfer(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ok := addTx(t, store, "0x1", testStart.Add(-3*time.Minute), confirmed)
	rejected := addTx(t, store, "0x2", testStart.Add(-2*time.Minute), confirmed)
	missing := addTx(t, store, "0x3", testStart.Add(-time.Minute), confirmed)
	retried := addTx(t, store, "0x4", testStart.Add(-time.Hour), func(tx *types.Transaction) {
		tx.Status = types.PaymentConfirmed
		tx.RetryCount = 1
	})

	var submitted []string
	batcher := &fakeTransferrer{batchFn: func(items []*tokens.BatchTransferItem) (map[string]*tokens.BatchTransferResult, error) {
		for _, item := range items {
			submitted = append(submitted, item.Context.TxID)
		}
		return map[string]*tokens.BatchTransferResult{
			ok.ID:       {TransferRef: "0xref1"},
			rejected.ID: {Err: tokens.NewBusinessFailure("", "invalid recipient address")},
			"unknown":   {TransferRef: "0xref9"},
		}, nil
	}}
	w := NewTransferWorker(store, nil, batcher, newTestClock(), defaultTransferOptions())
	summary, err := w.ProcessBatchTransfer(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ok.ID, rejected.ID, missing.ID}, submitted)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Retried)

	got := reload(t, store, ok.ID)
	assert.Equal(t, types.Completed, got.Status)
	assert.Equal(t, "0xref1", got.TransferRef)

	got = reload(t, store, rejected.ID)
	assert.Equal(t, types.FailedTransfer, got.Status)
	assert.Equal(t, 0, got.RetryCount)

	got = reload(t, store, missing.ID)
	assert.Equal(t, types.PaymentConfirmed, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Contains(t, got.FailReason, tokens.ErrMissingBatchResult.Error())
	assert.Equal(t, testStart.Add(time.Minute).Unix(), got.NextRetryAt)

	assert.Equal(t, 1, reload(t, store, retried.ID).RetryCount)
}

func TestProcessBatchTransferNilResultCountsAsMissing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	a := addTx(t, store, "0x1", testStart, confirmed)
	b := addTx(t, store, "0x2", testStart, confirmed)

	batcher := &fakeTransferrer{batchFn: func([]*tokens.BatchTransferItem) (map[string]*tokens.BatchTransferResult, error) {
		return map[string]*tokens.BatchTransferResult{
			a.ID: {TransferRef: "0xref1"},
			b.ID: nil,
		}, nil
	}}
	summary, err := NewTransferWorker(store, nil, batcher, newTestClock(), defaultTransferOptions()).ProcessBatchTransfer(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, summary.Retried)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, b.ID, summary.Errors[0].TxID)

	assert.Equal(t, types.Completed, reload(t, store, a.ID).Status)
	got := reload(t, store, b.ID)
	assert.Equal(t, types.PaymentConfirmed, got.Status)
	assert.Contains(t, got.FailReason, tokens.ErrMissingBatchResult.Error())
}

func TestProcessBatchTransferCallError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	a := addTx(t, store, "0x1", testStart, confirmed)
	b := addTx(t, store, "0x2", testStart, confirmed)

	batcher := &fakeTransferrer{batchFn: func([]*tokens.BatchTransferItem) (map[string]*tokens.BatchTransferResult, error) {
		return nil, errors.New("gas price too high")
	}}
	summary, err := NewTransferWorker(store, nil, batcher, newTestClock(), defaultTransferOptions()).ProcessBatchTransfer(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Retried)
	for _, id := range []string{a.ID, b.ID} {
		got := reload(t, store, id)
		assert.Equal(t, types.PaymentConfirmed, got.Status)
		assert.Equal(t, 1, got.RetryCount)
	}
}

func TestProcessBatchTransferWithoutBatcher(t *testing.T) {
	w := NewTransferWorker(newTestStore(t), nil, nil, newTestClock(), defaultTransferOptions())
	_, err := w.ProcessBatchTransfer(context.Background())
	assert.True(t, errors.Is(err, tokens.ErrNoCollaborator))
}
