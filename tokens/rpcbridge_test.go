package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyswap/CrossChain-Settlement/rpc/gateway"
)

type rpcCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newCollaborator(t *testing.T, handle func(call *rpcCall) string) *gateway.Gateway {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + handle(&call) + `}`))
	}))
	t.Cleanup(srv.Close)
	return gateway.New("test", gateway.Config{APIAddress: srv.URL, BaseDelay: time.Millisecond})
}

func TestRPCVerifier(t *testing.T) {
	var got VerifyRequest
	gw := newCollaborator(t, func(call *rpcCall) string {
		assert.Equal(t, DefaultVerifyMethod, call.Method)
		require.Len(t, call.Params, 1)
		require.NoError(t, json.Unmarshal(call.Params[0], &got))
		if got.DepositRef == "0xbad" {
			return `{"valid":false,"error":"deposit not found"}`
		}
		return `{"valid":true,"actualAmount":"100.0","confirmations":12}`
	})
	verifier := NewRPCVerifier(gw, "", 6)

	req := &VerifyRequest{
		DepositRef:        "0xaaa",
		Chain:             "ETH",
		Amount:            decimal.RequireFromString("100.0"),
		Token:             "USDC",
		ExpectedRecipient: "0xrecv",
	}
	res, err := verifier.VerifyPayment(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, res.ActualAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, uint64(12), res.Confirmations)
	assert.Equal(t, "0xrecv", got.ExpectedRecipient)

	req.DepositRef = "0xbad"
	_, err = verifier.VerifyPayment(context.Background(), req)
	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, KindBusiness, failure.Kind)
	assert.Equal(t, "deposit not found", failure.Message)
}

func TestRPCVerifierConfirmations(t *testing.T) {
	gw := newCollaborator(t, func(*rpcCall) string {
		return `{"valid":true,"actualAmount":"1","confirmations":2}`
	})
	_, err := NewRPCVerifier(gw, "", 6).VerifyPayment(context.Background(), &VerifyRequest{})
	assert.True(t, errors.Is(err, ErrNotEnoughConfirms))
	assert.Equal(t, KindBusiness, Classify(err))
}

func TestRPCTransferrer(t *testing.T) {
	gw := newCollaborator(t, func(call *rpcCall) string {
		var args map[string]interface{}
		require.NoError(t, json.Unmarshal(call.Params[0], &args))
		if args["recipient"] == "0xnowallet" {
			return `{"success":false,"error":"wallet not configured"}`
		}
		assert.Equal(t, "tx-1", args["txid"])
		return `{"success":true,"transferRef":"0xbbb"}`
	})
	transferrer := NewRPCTransferrer(gw, "", "")

	res, err := transferrer.TransferFunds(context.Background(), "0xrecv", decimal.NewFromInt(5), &TransferContext{TxID: "tx-1"})
	require.NoError(t, err)
	assert.Equal(t, "0xbbb", res.TransferRef)

	_, err = transferrer.TransferFunds(context.Background(), "0xnowallet", decimal.NewFromInt(5), &TransferContext{TxID: "tx-2"})
	assert.True(t, IsPermanent(err))
}

func TestRPCBatchTransfer(t *testing.T) {
	gw := newCollaborator(t, func(call *rpcCall) string {
		assert.Equal(t, DefaultBatchTransferMethod, call.Method)
		return `{"tx-1":{"success":true,"transferRef":"0x1"},"tx-2":{"success":false,"code":"E_NONCE","error":"nonce too low"}}`
	})
	transferrer := NewRPCTransferrer(gw, "", "")

	items := []*BatchTransferItem{
		{Recipient: "0xa", Amount: decimal.NewFromInt(1), Context: &TransferContext{TxID: "tx-1"}},
		{Recipient: "0xb", Amount: decimal.NewFromInt(2), Context: &TransferContext{TxID: "tx-2"}},
		{Recipient: "0xc", Amount: decimal.NewFromInt(3), Context: &TransferContext{TxID: "tx-3"}},
	}
	results, err := transferrer.BatchTransferFunds(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "0x1", results["tx-1"].TransferRef)
	assert.NoError(t, results["tx-1"].Err)
	assert.Equal(t, KindBusiness, Classify(results["tx-2"].Err))
	assert.Nil(t, results["tx-3"])
}
