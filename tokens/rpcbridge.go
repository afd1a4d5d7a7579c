package tokens

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// default collaborator methods
const (
	DefaultVerifyMethod        = "swap_verifyPayment"
	DefaultTransferMethod      = "swap_transferFunds"
	DefaultBatchTransferMethod = "swap_batchTransferFunds"
)

// Caller calls a json-rpc method and decodes the result, see gateway.Gateway
type Caller interface {
	CallResult(ctx context.Context, result interface{}, method string, params []interface{}, useBackup bool) error
}

// collabReply collaborator reply, either the success or the failure variant
type collabReply struct {
	Valid         bool            `json:"valid"`
	Success       bool            `json:"success"`
	ActualAmount  decimal.Decimal `json:"actualAmount"`
	Confirmations uint64          `json:"confirmations"`
	TransferRef   string          `json:"transferRef"`
	Code          string          `json:"code"`
	Error         string          `json:"error"`
}

func (r *collabReply) failure(defaultMsg string) *Failure {
	msg := r.Error
	if msg == "" {
		msg = defaultMsg
	}
	return NewBusinessFailure(r.Code, msg)
}

type transferArgs struct {
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
	*TransferContext
}

// RPCVerifier verifier reached through a gateway
type RPCVerifier struct {
	caller           Caller
	method           string
	minConfirmations uint64
}

// NewRPCVerifier new verifier
func NewRPCVerifier(caller Caller, method string, minConfirmations uint64) *RPCVerifier {
	if method == "" {
		method = DefaultVerifyMethod
	}
	return &RPCVerifier{caller: caller, method: method, minConfirmations: minConfirmations}
}

// VerifyPayment impl Verifier
func (v *RPCVerifier) VerifyPayment(ctx context.Context, req *VerifyRequest) (*VerifyResult, error) {
	if v.caller == nil {
		return nil, ErrNoCollaborator
	}
	var reply collabReply
	err := v.caller.CallResult(ctx, &reply, v.method, []interface{}{req}, false)
	if err != nil {
		return nil, err
	}
	if !reply.Valid {
		return nil, reply.failure(ErrPaymentNotValid.Error())
	}
	if reply.Confirmations < v.minConfirmations {
		return nil, &Failure{
			Kind:    KindBusiness,
			Message: fmt.Sprintf("%v: %d < %d", ErrNotEnoughConfirms, reply.Confirmations, v.minConfirmations),
			Cause:   ErrNotEnoughConfirms,
		}
	}
	return &VerifyResult{
		Valid:         true,
		ActualAmount:  reply.ActualAmount,
		Confirmations: reply.Confirmations,
	}, nil
}

// RPCTransferrer transferrer reached through a gateway
type RPCTransferrer struct {
	caller      Caller
	method      string
	batchMethod string
}

// NewRPCTransferrer new transferrer
func NewRPCTransferrer(caller Caller, method, batchMethod string) *RPCTransferrer {
	if method == "" {
		method = DefaultTransferMethod
	}
	if batchMethod == "" {
		batchMethod = DefaultBatchTransferMethod
	}
	return &RPCTransferrer{caller: caller, method: method, batchMethod: batchMethod}
}

// TransferFunds impl Transferrer
func (t *RPCTransferrer) TransferFunds(ctx context.Context, recipient string, amount decimal.Decimal, tctx *TransferContext) (*TransferResult, error) {
	if t.caller == nil {
		return nil, ErrNoCollaborator
	}
	args := &transferArgs{Recipient: recipient, Amount: amount, TransferContext: tctx}
	var reply collabReply
	err := t.caller.CallResult(ctx, &reply, t.method, []interface{}{args}, false)
	if err != nil {
		return nil, err
	}
	return reply.transferResult()
}

// BatchTransferFunds impl BatchTransferrer
func (t *RPCTransferrer) BatchTransferFunds(ctx context.Context, items []*BatchTransferItem) (map[string]*BatchTransferResult, error) {
	if t.caller == nil {
		return nil, ErrNoCollaborator
	}
	args := make([]*transferArgs, 0, len(items))
	for _, item := range items {
		args = append(args, &transferArgs{Recipient: item.Recipient, Amount: item.Amount, TransferContext: item.Context})
	}
	var replies map[string]*collabReply
	err := t.caller.CallResult(ctx, &replies, t.batchMethod, []interface{}{args}, false)
	if err != nil {
		return nil, err
	}
	results := make(map[string]*BatchTransferResult, len(replies))
	for txid, reply := range replies {
		if reply == nil {
			continue
		}
		res, err := reply.transferResult()
		if err != nil {
			results[txid] = &BatchTransferResult{Err: err}
			continue
		}
		results[txid] = &BatchTransferResult{TransferRef: res.TransferRef}
	}
	return results, nil
}

func (r *collabReply) transferResult() (*TransferResult, error) {
	if !r.Success {
		return nil, r.failure("transfer rejected")
	}
	if r.TransferRef == "" {
		return nil, &Failure{Kind: KindBusiness, Cause: ErrEmptyTransferRef}
	}
	return &TransferResult{TransferRef: r.TransferRef}, nil
}
