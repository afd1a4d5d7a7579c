package worker

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/rpc/gateway"
	"github.com/anyswap/CrossChain-Settlement/tokens"
)

// Workers all the settlement workers and what they share
type Workers struct {
	Identifier  string
	Store       Store
	SrcGateway  *gateway.Gateway
	DestGateway *gateway.Gateway
	Verify      *VerifyWorker
	Transfer    *TransferWorker
	Recovery    *RecoveryWorker
	Alerter     Alerter
	EnableBulk  bool
}

// NewWorkers build workers from config
func NewWorkers(cfg *params.SettleConfig, store Store, clock clockwork.Clock) *Workers {
	clock = orRealClock(clock)

	srcGateway := gateway.New("SrcGateway", cfg.SrcGateway.ToGatewayConfig())
	destGateway := gateway.New("DestGateway", cfg.DestGateway.ToGatewayConfig())

	verifier := tokens.NewRPCVerifier(srcGateway, cfg.SrcGateway.VerifyMethod, cfg.SrcGateway.MinConfirmations)
	transferrer := tokens.NewRPCTransferrer(destGateway, cfg.DestGateway.TransferMethod, cfg.DestGateway.BatchTransferMethod)
	var batcher tokens.BatchTransferrer
	if cfg.Transfer.EnableBulk {
		batcher = transferrer
	}

	ws := &Workers{
		Identifier:  cfg.Identifier,
		Store:       store,
		SrcGateway:  srcGateway,
		DestGateway: destGateway,
		EnableBulk:  cfg.Transfer.EnableBulk,
	}
	ws.Verify = NewVerifyWorker(store, verifier, clock, VerifyOptions{
		BatchSize:      cfg.Verify.BatchSize,
		MaxRetries:     cfg.Verify.MaxRetries,
		RetryBaseDelay: time.Duration(cfg.Verify.RetryBaseDelay) * time.Second,
		RetryMaxDelay:  time.Duration(cfg.Verify.RetryMaxDelay) * time.Second,
		Lease:          time.Duration(cfg.Verify.LeaseSeconds) * time.Second,
	})
	ws.Transfer = NewTransferWorker(store, transferrer, batcher, clock, TransferOptions{
		BatchSize:      cfg.Transfer.BatchSize,
		MaxRetries:     cfg.Transfer.MaxRetries,
		RetryBaseDelay: time.Duration(cfg.Transfer.RetryBaseDelay) * time.Second,
		RetryMaxDelay:  time.Duration(cfg.Transfer.RetryMaxDelay) * time.Second,
		StaleAfter:     time.Duration(cfg.Transfer.StaleSeconds) * time.Second,
		BulkSize:       cfg.Transfer.BulkSize,
	})
	ws.Recovery = NewRecoveryWorker(store, VerifierFromConfig, clock, RecoveryOptions{
		BatchSize:           cfg.Recovery.BatchSize,
		MinAge:              time.Duration(cfg.Recovery.MinAgeSeconds) * time.Second,
		MaxRecoveryAttempts: cfg.Recovery.MaxRecoveryAttempts,
	})
	if cfg.Email != nil {
		ws.Alerter = NewEmailAlerter(cfg.Email, clock)
	}
	return ws
}

// VerifierFromConfig build a verifier from the currently loaded config,
// which is replaced when the config file is reloaded
func VerifierFromConfig() (tokens.Verifier, error) {
	cfg := params.GetConfig()
	if cfg == nil || cfg.SrcGateway == nil {
		return nil, errors.New("source gateway is not configured")
	}
	srcGateway := gateway.New("SrcGateway", cfg.SrcGateway.ToGatewayConfig())
	return tokens.NewRPCVerifier(srcGateway, cfg.SrcGateway.VerifyMethod, cfg.SrcGateway.MinConfirmations), nil
}
