// Package gateway is the single chokepoint for outbound chain calls.
// It retries failed calls with a linear delay and fails over to a backup endpoint.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pborman/uuid"

	"github.com/anyswap/CrossChain-Settlement/common"
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/rpc/client"
)

const (
	defaultMaxRetries   = 3
	defaultBaseDelay    = time.Second
	defaultTimeout      = 30 // seconds
	defaultHeightMethod = "eth_blockNumber"
)

var errNoEndpoint = errors.New("gateway has no endpoint")

// Config gateway config
type Config struct {
	APIAddress    string
	BackupAddress string
	MaxRetries    int
	BaseDelay     time.Duration
	Timeout       int // seconds, per attempt
	HeightMethod  string
}

// Gateway bounded-retry json-rpc caller
type Gateway struct {
	name       string
	cfg        Config
	httpClient *resty.Client
}

// New new gateway, zero config values are replaced with defaults
func New(name string, cfg Config) *Gateway {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HeightMethod == "" {
		cfg.HeightMethod = defaultHeightMethod
	}
	return &Gateway{
		name:       name,
		cfg:        cfg,
		httpClient: client.NewHTTPClient(),
	}
}

// Name gateway name
func (g *Gateway) Name() string {
	return g.name
}

// RetryDelay linear delay to wait after the failed attempt (1 based)
func (g *Gateway) RetryDelay(attempt int) time.Duration {
	return g.cfg.BaseDelay * time.Duration(attempt)
}

// MaxCallDuration worst case duration of one Call
func (g *Gateway) MaxCallDuration() time.Duration {
	total := time.Duration(g.cfg.MaxRetries*g.cfg.Timeout) * time.Second
	for attempt := 1; attempt < g.cfg.MaxRetries; attempt++ {
		total += g.RetryDelay(attempt)
	}
	return total
}

// Call call method and return the raw result.
// After the first failure subsequent attempts target the backup endpoint if one is configured.
func (g *Gateway) Call(ctx context.Context, method string, params []interface{}, useBackup bool) (json.RawMessage, error) {
	url := g.cfg.APIAddress
	onBackup := false
	if (useBackup || url == "") && g.cfg.BackupAddress != "" {
		url = g.cfg.BackupAddress
		onBackup = true
	}
	if url == "" {
		return nil, &RPCError{Gateway: g.name, Method: method, Cause: errNoEndpoint}
	}
	if params == nil {
		params = []interface{}{}
	}

	req := &client.Request{
		Method:  method,
		Params:  params,
		Timeout: g.cfg.Timeout,
		ID:      uuid.New(),
	}

	var (
		lastErr  error
		attempts int
	)
	for attempts = 1; attempts <= g.cfg.MaxRetries; attempts++ {
		result, err := client.RPCPostRaw(ctx, g.httpClient, url, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
		log.Warn("[gateway] call failed", "gateway", g.name, "method", method, "id", req.ID, "url", url, "attempt", attempts, "err", err)

		if !onBackup && g.cfg.BackupAddress != "" {
			url = g.cfg.BackupAddress
			onBackup = true
		}
		if attempts == g.cfg.MaxRetries {
			break
		}
		if err := sleepCtx(ctx, g.RetryDelay(attempts)); err != nil {
			lastErr = err
			break
		}
	}
	return nil, &RPCError{
		Gateway:  g.name,
		Method:   method,
		Endpoint: url,
		Attempts: attempts,
		Cause:    lastErr,
	}
}

// CallResult call method and decode the result into a typed value
func (g *Gateway) CallResult(ctx context.Context, result interface{}, method string, params []interface{}, useBackup bool) error {
	raw, err := g.Call(ctx, method, params, useBackup)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return &RPCError{
			Gateway: g.name,
			Method:  method,
			Cause:   fmt.Errorf("decode result error: %w", err),
		}
	}
	return nil
}

// GetChainHeight get latest block height
func (g *Gateway) GetChainHeight(ctx context.Context) (uint64, error) {
	raw, err := g.Call(ctx, g.cfg.HeightMethod, nil, false)
	if err != nil {
		return 0, err
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return common.GetUint64FromStr(str)
	}
	var height uint64
	if err := json.Unmarshal(raw, &height); err != nil {
		return 0, fmt.Errorf("wrong chain height %s: %w", raw, err)
	}
	return height, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
