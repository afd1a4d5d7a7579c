package rpcapi

import (
	"net/http"

	"github.com/anyswap/CrossChain-Settlement/internal/settleapi"
)

// RPCAPI rpc api handler
type RPCAPI struct {
	svc *settleapi.Service
}

// NewRPCAPI new rpc api handler
func NewRPCAPI(svc *settleapi.Service) *RPCAPI {
	return &RPCAPI{svc: svc}
}

// RPCNullArgs null args
type RPCNullArgs struct{}

// GetVersionInfo api
func (s *RPCAPI) GetVersionInfo(r *http.Request, args *RPCNullArgs, result *string) error {
	*result = s.svc.GetVersionInfo()
	return nil
}

// GetServerInfo api
func (s *RPCAPI) GetServerInfo(r *http.Request, args *RPCNullArgs, result *settleapi.ServerInfo) error {
	res, err := s.svc.GetServerInfo(r.Context())
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetStatusCounts api
func (s *RPCAPI) GetStatusCounts(r *http.Request, args *RPCNullArgs, result *settleapi.StatusCounts) error {
	res, err := s.svc.GetStatusCounts(r.Context())
	if err == nil && res != nil {
		*result = res
	}
	return err
}

// GetStatusCount api
func (s *RPCAPI) GetStatusCount(r *http.Request, status *string, result *int) error {
	res, err := s.svc.GetStatusCount(r.Context(), *status)
	if err == nil {
		*result = res
	}
	return err
}

// GetTransaction api
func (s *RPCAPI) GetTransaction(r *http.Request, txid *string, result *settleapi.TxStatusInfo) error {
	res, err := s.svc.GetTransaction(r.Context(), *txid)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetTransactionByDepositRef api
func (s *RPCAPI) GetTransactionByDepositRef(r *http.Request, depositRef *string, result *settleapi.TxStatusInfo) error {
	res, err := s.svc.GetTransactionByDepositRef(r.Context(), *depositRef)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// RegisterDeposit api
func (s *RPCAPI) RegisterDeposit(r *http.Request, args *settleapi.RegisterArgs, result *settleapi.TxStatusInfo) error {
	res, err := s.svc.RegisterDeposit(r.Context(), args)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}
