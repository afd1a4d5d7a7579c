// Package settleapi implements the read side of the settlement server
// plus deposit registration.
package settleapi

import (
	"context"
	"errors"
	"strings"

	rpcjson "github.com/gorilla/rpc/v2/json2"

	"github.com/anyswap/CrossChain-Settlement/common"
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/types"
)

var (
	errTxNotFound      = newRPCError(-32096, "transaction not found")
	errDepositIsDup    = newRPCError(-32095, "deposit reference already registered")
	errEmptyArgument   = newRPCError(-32094, "empty argument")
	errStoreNotReady   = newRPCError(-32093, "store is not ready")
	errInvalidDeposit  = newRPCError(-32092, "invalid deposit")
	errUnknownStatusID = newRPCError(-32091, "unknown status")
)

func newRPCError(ec rpcjson.ErrorCode, message string) error {
	return &rpcjson.Error{
		Code:    ec,
		Message: message,
	}
}

func newRPCInternalError(err error) error {
	return newRPCError(-32000, "rpcError: "+err.Error())
}

// Store transaction storage used by the api
type Store interface {
	AddTransaction(ctx context.Context, tx *types.Transaction) error
	FindTransaction(ctx context.Context, id string) (*types.Transaction, error)
	FindTransactionByDepositRef(ctx context.Context, depositRef string) (*types.Transaction, error)
	CountTransactionsByStatus(ctx context.Context) (map[types.TxStatus]int, error)
}

// Service api service
type Service struct {
	store      Store
	srcChain   tokens.ChainHeighter
	destChain  tokens.ChainHeighter
	identifier string
	now        func() int64
}

// NewService new api service, chain heighters may be nil
func NewService(store Store, srcChain, destChain tokens.ChainHeighter) *Service {
	return &Service{
		store:     store,
		srcChain:  srcChain,
		destChain: destChain,
		now:       common.Now,
	}
}

// SetIdentifier overrides the identifier taken from the loaded config
func (s *Service) SetIdentifier(identifier string) {
	s.identifier = identifier
}

func (s *Service) getIdentifier() string {
	if s.identifier != "" {
		return s.identifier
	}
	if cfg := params.GetConfig(); cfg != nil {
		return cfg.Identifier
	}
	return ""
}

// GetVersionInfo api
func (s *Service) GetVersionInfo() string {
	return params.VersionWithMeta
}

// GetServerInfo api
func (s *Service) GetServerInfo(ctx context.Context) (*ServerInfo, error) {
	log.Debug("[api] receive GetServerInfo")
	info := &ServerInfo{
		Identifier: s.getIdentifier(),
		Version:    params.VersionWithMeta,
	}
	getHeight := func(name string, chain tokens.ChainHeighter) uint64 {
		if chain == nil {
			return 0
		}
		height, err := chain.GetChainHeight(ctx)
		if err != nil {
			log.Warn("[api] get chain height failed", "chain", name, "err", err)
			if info.HeightErrors == nil {
				info.HeightErrors = make(map[string]string, 2)
			}
			info.HeightErrors[name] = err.Error()
		}
		return height
	}
	info.SrcChainHeight = getHeight("src", s.srcChain)
	info.DestChainHeight = getHeight("dest", s.destChain)
	return info, nil
}

// GetStatusCounts api
func (s *Service) GetStatusCounts(ctx context.Context) (StatusCounts, error) {
	if s.store == nil {
		return nil, errStoreNotReady
	}
	counts, err := s.store.CountTransactionsByStatus(ctx)
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	result := make(StatusCounts, len(types.AllStatuses))
	for _, status := range types.AllStatuses {
		result[status.String()] = counts[status]
	}
	return result, nil
}

// GetStatusCount api, count of one status given by name
func (s *Service) GetStatusCount(ctx context.Context, statusName string) (int, error) {
	status, err := types.ParseTxStatus(strings.TrimSpace(statusName))
	if err != nil {
		return 0, errUnknownStatusID
	}
	counts, err := s.GetStatusCounts(ctx)
	if err != nil {
		return 0, err
	}
	return counts[status.String()], nil
}

// GetTransaction api
func (s *Service) GetTransaction(ctx context.Context, id string) (*TxStatusInfo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errEmptyArgument
	}
	if s.store == nil {
		return nil, errStoreNotReady
	}
	tx, err := s.store.FindTransaction(ctx, id)
	return convertResult(tx, err)
}

// GetTransactionByDepositRef api
func (s *Service) GetTransactionByDepositRef(ctx context.Context, depositRef string) (*TxStatusInfo, error) {
	depositRef = strings.TrimSpace(depositRef)
	if depositRef == "" {
		return nil, errEmptyArgument
	}
	if s.store == nil {
		return nil, errStoreNotReady
	}
	tx, err := s.store.FindTransactionByDepositRef(ctx, depositRef)
	return convertResult(tx, err)
}

// RegisterDeposit api, creates a transaction awaiting payment confirmation
func (s *Service) RegisterDeposit(ctx context.Context, args *RegisterArgs) (*TxStatusInfo, error) {
	if args == nil {
		return nil, errEmptyArgument
	}
	if s.store == nil {
		return nil, errStoreNotReady
	}
	log.Info("[api] receive RegisterDeposit", "depositRef", args.DepositRef, "chain", args.SrcChain, "recipient", args.Recipient, "amount", args.Amount, "token", args.Token)
	tx, err := types.NewTransaction(args.DepositRef, args.SrcChain, args.Recipient, args.Amount, args.Token, s.now())
	if err != nil {
		return nil, newRPCError(-32092, errInvalidDeposit.Error()+": "+err.Error())
	}
	err = s.store.AddTransaction(ctx, tx)
	switch {
	case errors.Is(err, types.ErrTxIsDup):
		return nil, errDepositIsDup
	case err != nil:
		return nil, newRPCInternalError(err)
	}
	return ConvertTransaction(tx), nil
}

func convertResult(tx *types.Transaction, err error) (*TxStatusInfo, error) {
	switch {
	case errors.Is(err, types.ErrTxNotFound):
		return nil, errTxNotFound
	case err != nil:
		return nil, newRPCInternalError(err)
	case tx == nil:
		return nil, errTxNotFound
	}
	return ConvertTransaction(tx), nil
}
