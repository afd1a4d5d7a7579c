package params

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/anyswap/CrossChain-Settlement/rpc/gateway"
)

var errNilConfig = errors.New("config is nil")

// CheckConfig check config
func (c *SettleConfig) CheckConfig() (err error) {
	if c == nil {
		return errNilConfig
	}
	if c.Identifier == "" {
		return errors.New("server must config non empty 'Identifier'")
	}
	if c.Server == nil {
		return errors.New("server must config 'Server'")
	}
	if err = c.Server.CheckConfig(); err != nil {
		return err
	}
	if c.SrcGateway == nil {
		return errors.New("server must config 'SrcGateway'")
	}
	if err = c.SrcGateway.CheckConfig("SrcGateway"); err != nil {
		return err
	}
	if c.DestGateway == nil {
		return errors.New("server must config 'DestGateway'")
	}
	if err = c.DestGateway.CheckConfig("DestGateway"); err != nil {
		return err
	}
	if err = c.Verify.CheckConfig(c.SrcGateway); err != nil {
		return err
	}
	if err = c.Transfer.CheckConfig(c.DestGateway); err != nil {
		return err
	}
	if err = c.Recovery.CheckConfig(); err != nil {
		return err
	}
	if c.Email != nil {
		if err = c.Email.CheckConfig(); err != nil {
			return err
		}
	}
	return nil
}

// CheckConfig check server config
func (c *ServerConfig) CheckConfig() error {
	if c.MongoDB == nil && c.LevelDB == nil {
		return errors.New("server must config 'Server.MongoDB' or 'Server.LevelDB'")
	}
	if c.MongoDB != nil && c.MongoDB.DBName == "" {
		return errors.New("server must config 'Server.MongoDB.DBName'")
	}
	if c.APIServer == nil {
		return errors.New("server must config 'Server.APIServer'")
	}
	if c.APIServer.MaxRequestsLimit < 0 {
		return errors.New("wrong 'Server.APIServer.MaxRequestsLimit'")
	}
	return checkSchedule("Server.StatsSchedule", c.StatsSchedule)
}

// CheckConfig check gateway config
func (c *GatewayConfig) CheckConfig(name string) error {
	if c.APIAddress == "" && c.BackupAddress == "" {
		return fmt.Errorf("%v must config 'APIAddress'", name)
	}
	if c.MaxRetries < 0 || c.BaseDelayMillis < 0 || c.TimeoutSeconds < 0 {
		return fmt.Errorf("%v has negative retry or timeout items", name)
	}
	return nil
}

// CheckConfig check verify config.
// A verification must end before its lease expires and another run takes the row over.
func (c *VerifyConfig) CheckConfig(srcGateway *GatewayConfig) error {
	if c.BatchSize <= 0 || c.MaxRetries <= 0 {
		return errors.New("verify must config positive 'BatchSize' and 'MaxRetries'")
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		return errors.New("verify 'RetryMaxDelay' is less than 'RetryBaseDelay'")
	}
	lease := time.Duration(c.LeaseSeconds) * time.Second
	budget := gateway.New("SrcGateway", srcGateway.ToGatewayConfig()).MaxCallDuration()
	if lease <= budget {
		return fmt.Errorf("verify 'LeaseSeconds' (%v) must be larger than the source gateway call budget (%v)", lease, budget)
	}
	if err := checkSchedule("Verify.Schedule", c.Schedule); err != nil {
		return err
	}
	return checkSchedule("Verify.RetrySchedule", c.RetrySchedule)
}

// CheckConfig check transfer config.
// An in flight transfer must end before the stuck sweep may revert it.
func (c *TransferConfig) CheckConfig(destGateway *GatewayConfig) error {
	if c.BatchSize <= 0 || c.MaxRetries <= 0 || c.BulkSize <= 0 {
		return errors.New("transfer must config positive 'BatchSize', 'MaxRetries' and 'BulkSize'")
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		return errors.New("transfer 'RetryMaxDelay' is less than 'RetryBaseDelay'")
	}
	stale := time.Duration(c.StaleSeconds) * time.Second
	budget := gateway.New("DestGateway", destGateway.ToGatewayConfig()).MaxCallDuration()
	if stale <= budget {
		return fmt.Errorf("transfer 'StaleSeconds' (%v) must be larger than the destination gateway call budget (%v)", stale, budget)
	}
	for name, spec := range map[string]string{
		"Transfer.Schedule":      c.Schedule,
		"Transfer.RetrySchedule": c.RetrySchedule,
		"Transfer.StuckSchedule": c.StuckSchedule,
		"Transfer.BulkSchedule":  c.BulkSchedule,
	} {
		if err := checkSchedule(name, spec); err != nil {
			return err
		}
	}
	return nil
}

// CheckConfig check recovery config
func (c *RecoveryConfig) CheckConfig() error {
	if c.BatchSize <= 0 || c.MaxRecoveryAttempts <= 0 {
		return errors.New("recovery must config positive 'BatchSize' and 'MaxRecoveryAttempts'")
	}
	if c.MinAgeSeconds < 0 {
		return errors.New("recovery 'MinAgeSeconds' is negative")
	}
	return checkSchedule("Recovery.Schedule", c.Schedule)
}

// CheckConfig check email config
func (c *EmailConfig) CheckConfig() error {
	if c.Server == "" || c.Port == 0 || c.From == "" {
		return errors.New("email must config 'Server', 'Port' and 'From'")
	}
	if len(c.To) == 0 {
		return errors.New("email must config 'To'")
	}
	return nil
}

func checkSchedule(name, spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("wrong schedule '%v' of %v: %w", spec, name, err)
	}
	return nil
}
