package server

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyswap/CrossChain-Settlement/internal/settleapi"
	"github.com/anyswap/CrossChain-Settlement/leveldb"
	"github.com/anyswap/CrossChain-Settlement/rpc/client"
	"github.com/anyswap/CrossChain-Settlement/types"
)

func newTestServer(t *testing.T, maxRequestsLimit float64) *httptest.Server {
	store, err := leveldb.OpenStore("", 0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := settleapi.NewService(store, nil, nil)
	svc.SetIdentifier("settle-test")
	ts := httptest.NewServer(NewHandler(svc, nil, maxRequestsLimit))
	t.Cleanup(ts.Close)
	return ts
}

func httpGet(t *testing.T, url string) (int, string) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRPCRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, 0)
	url := ts.URL + "/rpc"

	args := &settleapi.RegisterArgs{
		DepositRef: "0xaaa111",
		SrcChain:   "ETH",
		Recipient:  "0xrecipient",
		Amount:     decimal.RequireFromString("100.0"),
		Token:      "USDC",
	}
	var registered settleapi.TxStatusInfo
	require.NoError(t, client.RPCPost(ctx, &registered, url, "settle.RegisterDeposit", args))
	assert.Equal(t, types.AwaitingPaymentConfirmation, registered.Status)
	require.NotEmpty(t, registered.ID)

	var info settleapi.TxStatusInfo
	require.NoError(t, client.RPCPost(ctx, &info, url, "settle.GetTransaction", registered.ID))
	assert.Equal(t, "0xaaa111", info.DepositRef)
	assert.True(t, info.Amount.Equal(decimal.RequireFromString("100")))

	info = settleapi.TxStatusInfo{}
	require.NoError(t, client.RPCPost(ctx, &info, url, "settle.GetTransactionByDepositRef", "0xaaa111"))
	assert.Equal(t, registered.ID, info.ID)

	var counts settleapi.StatusCounts
	require.NoError(t, client.RPCPost(ctx, &counts, url, "settle.GetStatusCounts"))
	assert.Equal(t, 1, counts["AwaitingPaymentConfirmation"])

	err := client.RPCPost(ctx, &info, url, "settle.GetTransaction", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction not found")

	var serverInfo settleapi.ServerInfo
	require.NoError(t, client.RPCPost(ctx, &serverInfo, url, "settle.GetServerInfo"))
	assert.Equal(t, "settle-test", serverInfo.Identifier)
}

func TestRESTHandlers(t *testing.T) {
	ts := newTestServer(t, 0)

	code, body := httpGet(t, ts.URL+"/statistics")
	assert.Equal(t, http.StatusOK, code)
	var counts settleapi.StatusCounts
	require.NoError(t, json.Unmarshal([]byte(body), &counts))
	assert.Len(t, counts, len(types.AllStatuses))

	code, body = httpGet(t, ts.URL+"/tx/missing")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "transaction not found")

	code, body = httpGet(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "go_goroutines")

	resp, err := http.Post(ts.URL+"/serverinfo", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	forbid, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(forbid), "Forbid 'POST'")
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, 1)

	code, _ := httpGet(t, ts.URL+"/versioninfo")
	assert.Equal(t, http.StatusOK, code)
	code, _ = httpGet(t, ts.URL+"/versioninfo")
	assert.Equal(t, http.StatusTooManyRequests, code)
}
