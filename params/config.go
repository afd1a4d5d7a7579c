// Package params loads and checks the settlement server config.
package params

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/anyswap/CrossChain-Settlement/common"
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/rpc/gateway"
)

const (
	defaultAPIPort = 11556

	defaultVerifyBatchSize     = 50
	defaultVerifyMaxRetries    = 3
	defaultVerifyRetryBase     = 60   // seconds
	defaultVerifyRetryMax      = 3600 // seconds
	defaultVerifyLeaseSeconds  = 300
	defaultTransferBatchSize   = 30
	defaultTransferMaxRetries  = 3
	defaultTransferRetryBase   = 60   // seconds
	defaultTransferRetryMax    = 3600 // seconds
	defaultTransferStale       = 600  // seconds
	defaultTransferBulkSize    = 10
	defaultRecoveryBatchSize   = 10
	defaultRecoveryMinAge      = 86400 // seconds
	defaultRecoveryMaxAttempts = 2

	defaultVerifySchedule        = "@every 10s"
	defaultVerifyRetrySchedule   = "@every 30s"
	defaultTransferSchedule      = "@every 10s"
	defaultTransferRetrySchedule = "@every 30s"
	defaultTransferStuckSchedule = "@every 1m"
	defaultTransferBulkSchedule  = "@every 20s"
	defaultRecoverySchedule      = "@every 1h"
	defaultStatsSchedule         = "@every 1m"
)

var (
	configMu     sync.RWMutex
	settleConfig *SettleConfig

	loadConfigStarter sync.Once
)

// SettleConfig config items (decode from toml file)
type SettleConfig struct {
	Identifier  string
	Server      *ServerConfig
	SrcGateway  *GatewayConfig
	DestGateway *GatewayConfig
	Verify      *VerifyConfig
	Transfer    *TransferConfig
	Recovery    *RecoveryConfig
	Email       *EmailConfig `toml:",omitempty" json:",omitempty"`
}

// ServerConfig settle server config
type ServerConfig struct {
	MongoDB       *MongoDBConfig   `toml:",omitempty" json:",omitempty"`
	LevelDB       *LevelDBConfig   `toml:",omitempty" json:",omitempty"`
	APIServer     *APIServerConfig `toml:",omitempty" json:",omitempty"`
	StatsSchedule string           `toml:",omitempty" json:",omitempty"`
}

// MongoDBConfig mongodb config
type MongoDBConfig struct {
	DBURL    string   `toml:",omitempty" json:",omitempty"`
	DBURLs   []string `toml:",omitempty" json:",omitempty"`
	DBName   string
	UserName string `json:"-"`
	Password string `json:"-"`
}

// GetURLs get db urls
func (c *MongoDBConfig) GetURLs() []string {
	if len(c.DBURLs) != 0 {
		return c.DBURLs
	}
	return []string{c.DBURL}
}

// LevelDBConfig leveldb config, empty path means memory storage
type LevelDBConfig struct {
	Path    string
	Cache   int `toml:",omitempty" json:",omitempty"`
	Handles int `toml:",omitempty" json:",omitempty"`
}

// APIServerConfig api service config
type APIServerConfig struct {
	Port             int
	AllowedOrigins   []string
	MaxRequestsLimit float64 `toml:",omitempty" json:",omitempty"`
}

// GatewayConfig chain gateway and collaborator methods
type GatewayConfig struct {
	APIAddress          string
	BackupAddress       string `toml:",omitempty" json:",omitempty"`
	MaxRetries          int
	BaseDelayMillis     int64
	TimeoutSeconds      int
	HeightMethod        string `toml:",omitempty" json:",omitempty"`
	VerifyMethod        string `toml:",omitempty" json:",omitempty"`
	TransferMethod      string `toml:",omitempty" json:",omitempty"`
	BatchTransferMethod string `toml:",omitempty" json:",omitempty"`
	MinConfirmations    uint64 `toml:",omitempty" json:",omitempty"`
}

// ToGatewayConfig convert to gateway config
func (c *GatewayConfig) ToGatewayConfig() gateway.Config {
	return gateway.Config{
		APIAddress:    c.APIAddress,
		BackupAddress: c.BackupAddress,
		MaxRetries:    c.MaxRetries,
		BaseDelay:     time.Duration(c.BaseDelayMillis) * time.Millisecond,
		Timeout:       c.TimeoutSeconds,
		HeightMethod:  c.HeightMethod,
	}
}

// VerifyConfig payment verification worker config
type VerifyConfig struct {
	BatchSize      int
	MaxRetries     int
	RetryBaseDelay int64 // seconds
	RetryMaxDelay  int64 // seconds
	LeaseSeconds   int64
	Schedule       string
	RetrySchedule  string
}

// TransferConfig transfer worker config
type TransferConfig struct {
	BatchSize      int
	MaxRetries     int
	RetryBaseDelay int64 // seconds
	RetryMaxDelay  int64 // seconds
	StaleSeconds   int64
	EnableBulk     bool
	BulkSize       int
	Schedule       string
	RetrySchedule  string
	StuckSchedule  string
	BulkSchedule   string
}

// RecoveryConfig recovery worker config
type RecoveryConfig struct {
	BatchSize           int
	MinAgeSeconds       int64
	MaxRecoveryAttempts int
	Schedule            string
}

// EmailConfig email config
type EmailConfig struct {
	Server   string
	Port     int
	From     string
	FromName string
	Password string `json:"-"`
	To       []string
	Cc       []string
}

// GetConfig get settle config
func GetConfig() *SettleConfig {
	configMu.RLock()
	defer configMu.RUnlock()
	return settleConfig
}

// SetConfig set settle config
func SetConfig(config *SettleConfig) {
	configMu.Lock()
	defer configMu.Unlock()
	settleConfig = config
}

// GetServerConfig get server config
func GetServerConfig() *ServerConfig {
	return GetConfig().Server
}

// GetIdentifier get identifier
func GetIdentifier() string {
	return GetConfig().Identifier
}

// GetAPIPort get api service port
func GetAPIPort() int {
	apiPort := GetServerConfig().APIServer.Port
	if apiPort == 0 {
		apiPort = defaultAPIPort
	}
	return apiPort
}

// LoadConfig load config, exit on error
func LoadConfig(configFile string) *SettleConfig {
	loadConfigStarter.Do(func() {
		if configFile == "" {
			log.Fatalf("LoadConfig error: no config file specified")
		}
		log.Println("Config file is", configFile)
		config, err := LoadConfigFromFile(configFile)
		if err != nil {
			log.Fatalf("LoadConfig error: %v", err)
		}
		SetConfig(config)
		var bs []byte
		if log.JSONFormat {
			bs, _ = json.Marshal(config)
		} else {
			bs, _ = json.MarshalIndent(config, "", "  ")
		}
		log.Println("LoadConfig finished.", string(bs))
		log.Info("Check config success", "configFile", configFile)
	})
	return GetConfig()
}

// ReloadConfig load, check and replace the current config.
// The current config is kept if the file is invalid.
func ReloadConfig(configFile string) error {
	config, err := LoadConfigFromFile(configFile)
	if err != nil {
		return err
	}
	SetConfig(config)
	return nil
}

// LoadConfigFromFile decode config file, fill defaults and check
func LoadConfigFromFile(configFile string) (*SettleConfig, error) {
	if !common.FileExist(configFile) {
		return nil, fmt.Errorf("config file %v not exist", configFile)
	}
	config := &SettleConfig{}
	if _, err := toml.DecodeFile(configFile, config); err != nil {
		return nil, fmt.Errorf("toml DecodeFile error: %w", err)
	}
	config.SetDefaults()
	if err := config.CheckConfig(); err != nil {
		return nil, fmt.Errorf("check config failed: %w", err)
	}
	return config, nil
}

// SetDefaults fill zero items with defaults
func (c *SettleConfig) SetDefaults() {
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.APIServer == nil {
		c.Server.APIServer = &APIServerConfig{}
	}
	if c.Server.APIServer.Port == 0 {
		c.Server.APIServer.Port = defaultAPIPort
	}
	setDefaultString(&c.Server.StatsSchedule, defaultStatsSchedule)

	if c.Verify == nil {
		c.Verify = &VerifyConfig{}
	}
	setDefaultInt(&c.Verify.BatchSize, defaultVerifyBatchSize)
	setDefaultInt(&c.Verify.MaxRetries, defaultVerifyMaxRetries)
	setDefaultInt64(&c.Verify.RetryBaseDelay, defaultVerifyRetryBase)
	setDefaultInt64(&c.Verify.RetryMaxDelay, defaultVerifyRetryMax)
	setDefaultInt64(&c.Verify.LeaseSeconds, defaultVerifyLeaseSeconds)
	setDefaultString(&c.Verify.Schedule, defaultVerifySchedule)
	setDefaultString(&c.Verify.RetrySchedule, defaultVerifyRetrySchedule)

	if c.Transfer == nil {
		c.Transfer = &TransferConfig{}
	}
	setDefaultInt(&c.Transfer.BatchSize, defaultTransferBatchSize)
	setDefaultInt(&c.Transfer.MaxRetries, defaultTransferMaxRetries)
	setDefaultInt64(&c.Transfer.RetryBaseDelay, defaultTransferRetryBase)
	setDefaultInt64(&c.Transfer.RetryMaxDelay, defaultTransferRetryMax)
	setDefaultInt64(&c.Transfer.StaleSeconds, defaultTransferStale)
	setDefaultInt(&c.Transfer.BulkSize, defaultTransferBulkSize)
	setDefaultString(&c.Transfer.Schedule, defaultTransferSchedule)
	setDefaultString(&c.Transfer.RetrySchedule, defaultTransferRetrySchedule)
	setDefaultString(&c.Transfer.StuckSchedule, defaultTransferStuckSchedule)
	setDefaultString(&c.Transfer.BulkSchedule, defaultTransferBulkSchedule)

	if c.Recovery == nil {
		c.Recovery = &RecoveryConfig{}
	}
	setDefaultInt(&c.Recovery.BatchSize, defaultRecoveryBatchSize)
	setDefaultInt64(&c.Recovery.MinAgeSeconds, defaultRecoveryMinAge)
	setDefaultInt(&c.Recovery.MaxRecoveryAttempts, defaultRecoveryMaxAttempts)
	setDefaultString(&c.Recovery.Schedule, defaultRecoverySchedule)
}

func setDefaultInt(item *int, value int) {
	if *item == 0 {
		*item = value
	}
}

func setDefaultInt64(item *int64, value int64) {
	if *item == 0 {
		*item = value
	}
}

func setDefaultString(item *string, value string) {
	if *item == "" {
		*item = value
	}
}
