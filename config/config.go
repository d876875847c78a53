package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const defaultMaxBlockRangeSize = 1000

var (
	ErrUnknownChain    = errors.New("unknown chain")
	ErrUnknownBridge   = errors.New("unknown bridge")
	ErrInvalidChainID  = errors.New("invalid chain id")
	ErrMissingAdmin    = errors.New("bridge admin is not specified")
	ErrUnknownSide     = errors.New("chain is not a side of the bridge")
	ErrMissingSideInfo = errors.New("bridge side is not specified")
)

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type ChainConfig struct {
	RPC                *RPCConfig    `yaml:"rpc"`
	ChainID            string        `yaml:"chain_id"`
	BlockTime          time.Duration `yaml:"block_time"`
	BlockIndexInterval time.Duration `yaml:"block_index_interval"`
	SafeLogsRequest    bool          `yaml:"safe_logs_request"`
}

type BridgeSideConfig struct {
	ChainName          string         `yaml:"chain"`
	Chain              *ChainConfig   `yaml:"-"`
	Address            common.Address `yaml:"address"`
	TokenAddress       common.Address `yaml:"token_address"`
	StartBlock         uint           `yaml:"start_block"`
	BlockConfirmations uint           `yaml:"required_block_confirmations"`
	MaxBlockRangeSize  uint           `yaml:"max_block_range_size"`
}

type BridgeConfig struct {
	ID        string            `yaml:"-"`
	Admin     common.Address    `yaml:"admin"`
	Validator *common.Address   `yaml:"validator"`
	Home      *BridgeSideConfig `yaml:"home"`
	Foreign   *BridgeSideConfig `yaml:"foreign"`
}

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"database"`
}

type AttestationConfig struct {
	PrivateKey string   `yaml:"private_key"`
	Bridges    []string `yaml:"bridges"`
}

type PresenterConfig struct {
	Host string `yaml:"host"`
}

type Config struct {
	Chains      map[string]*ChainConfig  `yaml:"chains"`
	Bridges     map[string]*BridgeConfig `yaml:"bridges"`
	Attestation *AttestationConfig       `yaml:"attestation"`
	DBConfig    *DBConfig                `yaml:"postgres"`
	LogLevel    logrus.Level             `yaml:"log_level"`
	Presenter   *PresenterConfig         `yaml:"presenter"`
}

// InstanceConfig is the construction-time configuration of one bridge
// instance deployed on a single chain.
type InstanceConfig struct {
	BridgeID            string
	Token               common.Address
	Address             common.Address
	ChainID             *big.Int
	CounterpartyChainID *big.Int
	Admin               common.Address
	Validator           *common.Address
}

func (cfg *Config) init() error {
	for name, chain := range cfg.Chains {
		if chain == nil {
			continue
		}
		id, ok := new(big.Int).SetString(chain.ChainID, 10)
		if !ok {
			return fmt.Errorf("chain %s has chain id %q: %w", name, chain.ChainID, ErrInvalidChainID)
		}
		// "056" and "56" name the same chain
		chain.ChainID = id.String()
	}
	for id, bridge := range cfg.Bridges {
		if bridge == nil {
			return fmt.Errorf("empty config for bridge %s: %w", id, ErrMissingSideInfo)
		}
		bridge.ID = id
		if bridge.Admin == (common.Address{}) {
			return fmt.Errorf("bridge %s: %w", id, ErrMissingAdmin)
		}
		for _, side := range [2]*BridgeSideConfig{bridge.Home, bridge.Foreign} {
			if side == nil {
				return fmt.Errorf("bridge %s: %w", id, ErrMissingSideInfo)
			}
			var ok bool
			side.Chain, ok = cfg.Chains[side.ChainName]
			if !ok || side.Chain == nil {
				return fmt.Errorf("bridge %s refers to chain %s: %w", id, side.ChainName, ErrUnknownChain)
			}
			if side.MaxBlockRangeSize == 0 {
				side.MaxBlockRangeSize = defaultMaxBlockRangeSize
			}
		}
	}
	if cfg.Attestation != nil {
		for _, id := range cfg.Attestation.Bridges {
			if cfg.Bridges[id] == nil {
				return fmt.Errorf("attestation refers to bridge %s: %w", id, ErrUnknownBridge)
			}
		}
	}
	return nil
}

func (cfg *Config) GetChainConfig(chainID string) *ChainConfig {
	for _, chain := range cfg.Chains {
		if chain.ChainID == chainID {
			return chain
		}
	}
	return nil
}

// AttestedBridges returns the bridges the attestation service signs for,
// all configured bridges when the list is empty.
func (cfg *Config) AttestedBridges() []*BridgeConfig {
	if cfg.Attestation == nil || len(cfg.Attestation.Bridges) == 0 {
		res := make([]*BridgeConfig, 0, len(cfg.Bridges))
		for _, bridge := range cfg.Bridges {
			res = append(res, bridge)
		}
		return res
	}
	res := make([]*BridgeConfig, 0, len(cfg.Attestation.Bridges))
	for _, id := range cfg.Attestation.Bridges {
		res = append(res, cfg.Bridges[id])
	}
	return res
}

// Side returns the side deployed on the given chain together with its counterparty.
func (cfg *BridgeConfig) Side(chainID string) (side, counterparty *BridgeSideConfig, err error) {
	switch chainID {
	case cfg.Home.Chain.ChainID:
		return cfg.Home, cfg.Foreign, nil
	case cfg.Foreign.Chain.ChainID:
		return cfg.Foreign, cfg.Home, nil
	default:
		return nil, nil, fmt.Errorf("bridge %s, chain %s: %w", cfg.ID, chainID, ErrUnknownSide)
	}
}

func (cfg *BridgeConfig) Instance(chainID string) (*InstanceConfig, error) {
	side, counterparty, err := cfg.Side(chainID)
	if err != nil {
		return nil, err
	}
	return &InstanceConfig{
		BridgeID:            cfg.ID,
		Token:               side.TokenAddress,
		Address:             side.Address,
		ChainID:             side.Chain.BigChainID(),
		CounterpartyChainID: counterparty.Chain.BigChainID(),
		Admin:               cfg.Admin,
		Validator:           cfg.Validator,
	}, nil
}

func (cfg *ChainConfig) BigChainID() *big.Int {
	id, _ := new(big.Int).SetString(cfg.ChainID, 10)
	return id
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	blob = []byte(os.ExpandEnv(string(blob)))
	cfg := new(Config)
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	if err := cfg.init(); err != nil {
		return nil, fmt.Errorf("can't process config: %w", err)
	}
	return cfg, nil
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}
