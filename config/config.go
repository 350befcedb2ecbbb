package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

type StorageMode string

const (
	StoragePostgres StorageMode = "postgres"
	StorageMemory   StorageMode = "memory"
)

const (
	DefaultMaxPayloadSize    = 10 * 1024
	DefaultGuardianSetExpiry = 7 * 24 * time.Hour
	DefaultGovernanceChainID = 1
)

var (
	DefaultGovernanceEmitter = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000004")

	ErrInvalidConfig = errors.New("invalid config")
)

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"database"`
}

type PresenterConfig struct {
	Host string `yaml:"host"`
}

type MetricsConfig struct {
	Host string `yaml:"host"`
}

type GovernanceConfig struct {
	ChainID uint16      `yaml:"chain_id"`
	Emitter common.Hash `yaml:"emitter"`
}

type PolicyConfig struct {
	EnforceGuardianSetExpiry *bool         `yaml:"enforce_guardian_set_expiry"`
	MaxVAAAge                time.Duration `yaml:"max_vaa_age"`
}

// ShouldEnforceGuardianSetExpiry defaults to true when the option is omitted.
func (c *PolicyConfig) ShouldEnforceGuardianSetExpiry() bool {
	return c == nil || c.EnforceGuardianSetExpiry == nil || *c.EnforceGuardianSetExpiry
}

type BridgeConfig struct {
	ChainID                uint16            `yaml:"chain_id"`
	Authority              common.Address    `yaml:"authority"`
	MessageFee             uint64            `yaml:"message_fee"`
	MaxPayloadSize         int               `yaml:"max_payload_size"`
	GuardianSetExpiry      time.Duration     `yaml:"guardian_set_expiry"`
	InitialGuardianSet     []common.Address  `yaml:"initial_guardian_set"`
	Governance             *GovernanceConfig `yaml:"governance"`
	TokenBridgeEmitterSeed string            `yaml:"token_bridge_emitter_seed"`
	Policy                 *PolicyConfig     `yaml:"policy"`
}

type PriceOracleConfig struct {
	RPC     *RPCConfig `yaml:"rpc"`
	ChainID string     `yaml:"chain_id"`
}

type AlertConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	MinAge   time.Duration `yaml:"min_age"`
}

type Config struct {
	Storage     StorageMode             `yaml:"storage"`
	DBConfig    *DBConfig               `yaml:"postgres"`
	LogLevel    logrus.Level            `yaml:"log_level"`
	Presenter   *PresenterConfig        `yaml:"presenter"`
	Metrics     *MetricsConfig          `yaml:"metrics"`
	Bridge      *BridgeConfig           `yaml:"bridge"`
	PriceOracle *PriceOracleConfig      `yaml:"price_oracle"`
	Alerts      map[string]*AlertConfig `yaml:"alerts"`
}

func readYamlConfig(blob []byte) (*Config, error) {
	cfg := new(Config)
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) init() error {
	if cfg.Storage == "" {
		cfg.Storage = StoragePostgres
	}
	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DBConfig == nil {
			return fmt.Errorf("postgres section is required for %s storage: %w", cfg.Storage, ErrInvalidConfig)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage mode %q: %w", cfg.Storage, ErrInvalidConfig)
	}
	if cfg.Bridge == nil {
		return fmt.Errorf("bridge section is required: %w", ErrInvalidConfig)
	}
	b := cfg.Bridge
	if b.ChainID == 0 {
		return fmt.Errorf("bridge chain_id must be non-zero: %w", ErrInvalidConfig)
	}
	if b.MaxPayloadSize <= 0 {
		b.MaxPayloadSize = DefaultMaxPayloadSize
	}
	if b.GuardianSetExpiry <= 0 {
		b.GuardianSetExpiry = DefaultGuardianSetExpiry
	}
	if b.Governance == nil {
		b.Governance = &GovernanceConfig{}
	}
	if b.Governance.ChainID == 0 {
		b.Governance.ChainID = DefaultGovernanceChainID
	}
	if b.Governance.Emitter == (common.Hash{}) {
		b.Governance.Emitter = DefaultGovernanceEmitter
	}
	if b.TokenBridgeEmitterSeed == "" {
		b.TokenBridgeEmitterSeed = "token_bridge"
	}
	if b.Policy == nil {
		b.Policy = &PolicyConfig{}
	}
	if cfg.PriceOracle != nil && (cfg.PriceOracle.RPC == nil || cfg.PriceOracle.RPC.Host == "") {
		return fmt.Errorf("price_oracle requires rpc host: %w", ErrInvalidConfig)
	}
	for name, alert := range cfg.Alerts {
		if alert == nil {
			alert = new(AlertConfig)
			cfg.Alerts[name] = alert
		}
		if alert.Interval <= 0 {
			alert.Interval = time.Minute
		}
		if alert.Timeout <= 0 {
			alert.Timeout = 10 * time.Second
		}
	}
	return nil
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	blob, err := expandEnv(blob)
	if err != nil {
		return nil, err
	}
	cfg, err := readYamlConfig(blob)
	if err != nil {
		return nil, err
	}
	if err = cfg.init(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file %s: %w", path, err)
	}
	return ReadConfigWithEnv(blob)
}
