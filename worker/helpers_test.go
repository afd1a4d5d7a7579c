package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/anyswap/CrossChain-Settlement/leveldb"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/types"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *leveldb.Store {
	store, err := leveldb.OpenStore("", 0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestClock() clockwork.FakeClock {
	return clockwork.NewFakeClockAt(testStart)
}

// addTx add a transaction created at createdAt, mutate runs before insertion
func addTx(t *testing.T, store *leveldb.Store, depositRef string, createdAt time.Time, mutate func(tx *types.Transaction)) *types.Transaction {
	tx, err := types.NewTransaction(depositRef, "ETH", "0xrecipient", decimal.RequireFromString("100.0"), "USDC", createdAt.Unix())
	require.NoError(t, err)
	if mutate != nil {
		mutate(tx)
	}
	require.NoError(t, store.AddTransaction(context.Background(), tx))
	return tx
}

func reload(t *testing.T, store Store, id string) *types.Transaction {
	tx, err := store.FindTransaction(context.Background(), id)
	require.NoError(t, err)
	return tx
}

type fakeVerifier struct {
	mu    sync.Mutex
	calls int
	fn    func(req *tokens.VerifyRequest) (*tokens.VerifyResult, error)
}

func (v *fakeVerifier) VerifyPayment(_ context.Context, req *tokens.VerifyRequest) (*tokens.VerifyResult, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	if v.fn == nil {
		return &tokens.VerifyResult{Valid: true, ActualAmount: req.Amount, Confirmations: 12}, nil
	}
	return v.fn(req)
}

func (v *fakeVerifier) callCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

func invalidPayment() func(*tokens.VerifyRequest) (*tokens.VerifyResult, error) {
	return func(*tokens.VerifyRequest) (*tokens.VerifyResult, error) {
		return &tokens.VerifyResult{Valid: false}, nil
	}
}

func failVerify(err error) func(*tokens.VerifyRequest) (*tokens.VerifyResult, error) {
	return func(*tokens.VerifyRequest) (*tokens.VerifyResult, error) {
		return nil, err
	}
}

type fakeTransferrer struct {
	mu      sync.Mutex
	calls   int
	fn      func(recipient string, amount decimal.Decimal, tctx *tokens.TransferContext) (*tokens.TransferResult, error)
	batchFn func(items []*tokens.BatchTransferItem) (map[string]*tokens.BatchTransferResult, error)
}

func (f *fakeTransferrer) TransferFunds(_ context.Context, recipient string, amount decimal.Decimal, tctx *tokens.TransferContext) (*tokens.TransferResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(recipient, amount, tctx)
}

func (f *fakeTransferrer) BatchTransferFunds(_ context.Context, items []*tokens.BatchTransferItem) (map[string]*tokens.BatchTransferResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.batchFn(items)
}

func (f *fakeTransferrer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func transferOK(ref string) func(string, decimal.Decimal, *tokens.TransferContext) (*tokens.TransferResult, error) {
	return func(string, decimal.Decimal, *tokens.TransferContext) (*tokens.TransferResult, error) {
		return &tokens.TransferResult{TransferRef: ref}, nil
	}
}

func transferFail(err error) func(string, decimal.Decimal, *tokens.TransferContext) (*tokens.TransferResult, error) {
	return func(string, decimal.Decimal, *tokens.TransferContext) (*tokens.TransferResult, error) {
		return nil, err
	}
}

func defaultVerifyOptions() VerifyOptions {
	return VerifyOptions{
		BatchSize:      50,
		MaxRetries:     3,
		RetryBaseDelay: time.Minute,
		RetryMaxDelay:  time.Hour,
		Lease:          5 * time.Minute,
	}
}

func defaultTransferOptions() TransferOptions {
	return TransferOptions{
		BatchSize:      30,
		MaxRetries:     3,
		RetryBaseDelay: time.Minute,
		RetryMaxDelay:  time.Hour,
		StaleAfter:     10 * time.Minute,
		BulkSize:       10,
	}
}

func defaultRecoveryOptions() RecoveryOptions {
	return RecoveryOptions{
		BatchSize:           10,
		MinAge:              24 * time.Hour,
		MaxRecoveryAttempts: 2,
	}
}
