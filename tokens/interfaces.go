// Package tokens defines the chain collaborators used by the settlement workers.
package tokens

import (
	"context"

	"github.com/shopspring/decimal"
)

// VerifyRequest payment verification args
type VerifyRequest struct {
	DepositRef        string          `json:"depositRef"`
	Chain             string          `json:"chain"`
	Amount            decimal.Decimal `json:"amount"`
	Token             string          `json:"token"`
	ExpectedRecipient string          `json:"expectedRecipient"`
}

// VerifyResult payment verification result
type VerifyResult struct {
	Valid         bool
	ActualAmount  decimal.Decimal
	Confirmations uint64
}

// TransferContext extra info passed along with a transfer
type TransferContext struct {
	TxID       string `json:"txid"`
	DepositRef string `json:"depositRef"`
	SrcChain   string `json:"srcChain"`
	Token      string `json:"token"`
}

// TransferResult successful transfer result
type TransferResult struct {
	TransferRef string
}

// BatchTransferItem one transfer of a batch, keyed by TxID
type BatchTransferItem struct {
	Recipient string
	Amount    decimal.Decimal
	Context   *TransferContext
}

// BatchTransferResult per transaction outcome of a batch transfer
type BatchTransferResult struct {
	TransferRef string
	Err         error
}

// Verifier verifies a deposit on the source chain.
// A payment the collaborator reports invalid is returned as a *Failure.
type Verifier interface {
	VerifyPayment(ctx context.Context, req *VerifyRequest) (*VerifyResult, error)
}

// Transferrer moves destination chain tokens to the recipient.
// A transfer the collaborator rejects is returned as a *Failure.
type Transferrer interface {
	TransferFunds(ctx context.Context, recipient string, amount decimal.Decimal, tctx *TransferContext) (*TransferResult, error)
}

// BatchTransferrer submits several transfers in one call.
// The result is keyed by TransferContext.TxID, missing keys count as failed.
type BatchTransferrer interface {
	BatchTransferFunds(ctx context.Context, items []*BatchTransferItem) (map[string]*BatchTransferResult, error)
}

// ChainHeighter reports the latest block height of a chain
type ChainHeighter interface {
	GetChainHeight(ctx context.Context) (uint64, error)
}
