package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWalletTimeout = 45 * time.Minute
	DefaultLegTimeout    = 20 * time.Minute
)

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type ChainConfig struct {
	RPC            *RPCConfig     `yaml:"rpc"`
	ChainID        uint64         `yaml:"chain_id"`
	APIName        string         `yaml:"api_name"`
	BridgeContract common.Address `yaml:"bridge_contract"`
	NativeAsset    string         `yaml:"native_asset"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Origin  string        `yaml:"origin"`
}

type AmountConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type LegConfig struct {
	FromChain string `yaml:"from_chain"`
	ToChain   string `yaml:"to_chain"`
}

type BridgeConfig struct {
	Amount            *AmountConfig `yaml:"amount"`
	RepeatCount       int           `yaml:"repeat_count"`
	GasMultiplier     float64       `yaml:"gas_multiplier"`
	WaitForCompletion bool          `yaml:"wait_for_completion"`
	FromChain         string        `yaml:"from_chain"`
	ToChain           string        `yaml:"to_chain"`
	Paths             []*LegConfig  `yaml:"paths"`
	WalletTimeout     time.Duration `yaml:"wallet_timeout"`
	LegTimeout        time.Duration `yaml:"leg_timeout"`
}

// LegSequence returns the configured multi-leg path, or the default
// round-trip built from the from_chain/to_chain pair.
func (c *BridgeConfig) LegSequence() []*LegConfig {
	if len(c.Paths) > 0 {
		return c.Paths
	}
	return []*LegConfig{
		{FromChain: c.FromChain, ToChain: c.ToChain},
		{FromChain: c.ToChain, ToChain: c.FromChain},
	}
}

type DelayConfig struct {
	BetweenWallets  time.Duration `yaml:"between_wallets"`
	BetweenLegs     time.Duration `yaml:"between_legs"`
	AfterCompletion time.Duration `yaml:"after_completion"`
}

type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	BackoffFactor float64       `yaml:"backoff_factor"`
	InitialWait   time.Duration `yaml:"initial_wait"`
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

type Config struct {
	Chains      map[string]*ChainConfig `yaml:"chains"`
	API         *APIConfig              `yaml:"api"`
	Bridge      *BridgeConfig           `yaml:"bridge"`
	Delays      *DelayConfig            `yaml:"delays"`
	Retries     *RetryConfig            `yaml:"retries"`
	Workers     int                     `yaml:"workers"`
	UseProxy    bool                    `yaml:"use_proxy"`
	KeysFile    string                  `yaml:"keys_file"`
	ProxiesFile string                  `yaml:"proxies_file"`
	MetricsHost string                  `yaml:"metrics_host"`
	DBConfig    *DBConfig               `yaml:"postgres"`
	Presenter   *PresenterConfig        `yaml:"presenter"`
	LogLevel    logrus.Level            `yaml:"log_level"`
}

func ReadConfig(blob []byte) (*Config, error) {
	cfg := new(Config)
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	return ReadConfig([]byte(os.ExpandEnv(string(blob))))
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}

func (cfg *Config) applyDefaults() {
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	for _, chain := range cfg.Chains {
		if chain.NativeAsset == "" {
			chain.NativeAsset = "eth"
		}
	}
	if cfg.Retries == nil {
		cfg.Retries = &RetryConfig{}
	}
	if cfg.Retries.MaxAttempts == 0 {
		cfg.Retries.MaxAttempts = 3
	}
	if cfg.Retries.BackoffFactor == 0 {
		cfg.Retries.BackoffFactor = 2
	}
	if cfg.Retries.InitialWait == 0 {
		cfg.Retries.InitialWait = time.Second
	}
	if cfg.Delays == nil {
		cfg.Delays = &DelayConfig{}
	}
	if cfg.Bridge != nil {
		if cfg.Bridge.GasMultiplier == 0 {
			cfg.Bridge.GasMultiplier = 1
		}
		if cfg.Bridge.RepeatCount == 0 {
			cfg.Bridge.RepeatCount = 1
		}
		if cfg.Bridge.WalletTimeout == 0 {
			cfg.Bridge.WalletTimeout = DefaultWalletTimeout
		}
		if cfg.Bridge.LegTimeout == 0 {
			cfg.Bridge.LegTimeout = DefaultLegTimeout
		}
	}
	if cfg.KeysFile == "" {
		cfg.KeysFile = "pk.txt"
	}
	if cfg.ProxiesFile == "" {
		cfg.ProxiesFile = "proxy.txt"
	}
}

func (cfg *Config) validate() error {
	if len(cfg.Chains) == 0 {
		return fmt.Errorf("no chains configured")
	}
	for name, chain := range cfg.Chains {
		if chain.RPC == nil || chain.RPC.Host == "" {
			return fmt.Errorf("chain %q has no rpc host", name)
		}
		if chain.ChainID == 0 {
			return fmt.Errorf("chain %q has no chain id", name)
		}
		if chain.APIName == "" {
			return fmt.Errorf("chain %q has no api name", name)
		}
	}
	if cfg.API == nil || cfg.API.BaseURL == "" {
		return fmt.Errorf("api base url is not configured")
	}
	if cfg.Bridge == nil {
		return fmt.Errorf("bridge section is not configured")
	}
	if cfg.Bridge.Amount == nil || cfg.Bridge.Amount.Min <= 0 || cfg.Bridge.Amount.Max < cfg.Bridge.Amount.Min {
		return fmt.Errorf("bridge amount range is invalid")
	}
	for _, leg := range cfg.Bridge.LegSequence() {
		if cfg.Chains[leg.FromChain] == nil {
			return fmt.Errorf("bridge path references unknown chain %q", leg.FromChain)
		}
		if cfg.Chains[leg.ToChain] == nil {
			return fmt.Errorf("bridge path references unknown chain %q", leg.ToChain)
		}
		if leg.FromChain == leg.ToChain {
			return fmt.Errorf("bridge path leg %s -> %s is a self-transfer", leg.FromChain, leg.ToChain)
		}
	}
	return nil
}

func (cfg *Config) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Chains      map[string]*ChainConfig `yaml:"chains"`
		API         *APIConfig              `yaml:"api"`
		Bridge      *BridgeConfig           `yaml:"bridge"`
		Delays      *DelayConfig            `yaml:"delays"`
		Retries     *RetryConfig            `yaml:"retries"`
		Workers     int                     `yaml:"workers"`
		UseProxy    bool                    `yaml:"use_proxy"`
		KeysFile    string                  `yaml:"keys_file"`
		ProxiesFile string                  `yaml:"proxies_file"`
		MetricsHost string                  `yaml:"metrics_host"`
		DBConfig    *DBConfig               `yaml:"postgres"`
		Presenter   *PresenterConfig        `yaml:"presenter"`
		LogLevel    level                   `yaml:"log_level"`
	}{
		LogLevel: level(logrus.InfoLevel),
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*cfg = Config{
		Chains:      raw.Chains,
		API:         raw.API,
		Bridge:      raw.Bridge,
		Delays:      raw.Delays,
		Retries:     raw.Retries,
		Workers:     raw.Workers,
		UseProxy:    raw.UseProxy,
		KeysFile:    raw.KeysFile,
		ProxiesFile: raw.ProxiesFile,
		MetricsHost: raw.MetricsHost,
		DBConfig:    raw.DBConfig,
		Presenter:   raw.Presenter,
		LogLevel:    logrus.Level(raw.LogLevel),
	}
	return nil
}

func (c *RPCConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Host    string   `yaml:"host"`
		Timeout duration `yaml:"timeout"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.Host = raw.Host
	c.Timeout = time.Duration(raw.Timeout)
	return nil
}

func (c *ChainConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		RPC            *RPCConfig `yaml:"rpc"`
		ChainID        uint64     `yaml:"chain_id"`
		APIName        string     `yaml:"api_name"`
		BridgeContract address    `yaml:"bridge_contract"`
		NativeAsset    string     `yaml:"native_asset"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = ChainConfig{
		RPC:            raw.RPC,
		ChainID:        raw.ChainID,
		APIName:        raw.APIName,
		BridgeContract: common.Address(raw.BridgeContract),
		NativeAsset:    raw.NativeAsset,
	}
	return nil
}

func (c *APIConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		BaseURL string   `yaml:"base_url"`
		Timeout duration `yaml:"timeout"`
		Origin  string   `yaml:"origin"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = APIConfig{BaseURL: raw.BaseURL, Timeout: time.Duration(raw.Timeout), Origin: raw.Origin}
	return nil
}

func (c *BridgeConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Amount            *AmountConfig `yaml:"amount"`
		RepeatCount       int           `yaml:"repeat_count"`
		GasMultiplier     float64       `yaml:"gas_multiplier"`
		WaitForCompletion *bool         `yaml:"wait_for_completion"`
		FromChain         string        `yaml:"from_chain"`
		ToChain           string        `yaml:"to_chain"`
		Paths             []*LegConfig  `yaml:"paths"`
		WalletTimeout     duration      `yaml:"wallet_timeout"`
		LegTimeout        duration      `yaml:"leg_timeout"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	waitForCompletion := true
	if raw.WaitForCompletion != nil {
		waitForCompletion = *raw.WaitForCompletion
	}
	*c = BridgeConfig{
		Amount:            raw.Amount,
		RepeatCount:       raw.RepeatCount,
		GasMultiplier:     raw.GasMultiplier,
		WaitForCompletion: waitForCompletion,
		FromChain:         raw.FromChain,
		ToChain:           raw.ToChain,
		Paths:             raw.Paths,
		WalletTimeout:     time.Duration(raw.WalletTimeout),
		LegTimeout:        time.Duration(raw.LegTimeout),
	}
	return nil
}

func (c *DelayConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		BetweenWallets  duration `yaml:"between_wallets"`
		BetweenLegs     duration `yaml:"between_legs"`
		AfterCompletion duration `yaml:"after_completion"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = DelayConfig{
		BetweenWallets:  time.Duration(raw.BetweenWallets),
		BetweenLegs:     time.Duration(raw.BetweenLegs),
		AfterCompletion: time.Duration(raw.AfterCompletion),
	}
	return nil
}

func (c *RetryConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		MaxAttempts   int      `yaml:"max_attempts"`
		BackoffFactor float64  `yaml:"backoff_factor"`
		InitialWait   duration `yaml:"initial_wait"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = RetryConfig{
		MaxAttempts:   raw.MaxAttempts,
		BackoffFactor: raw.BackoffFactor,
		InitialWait:   time.Duration(raw.InitialWait),
	}
	return nil
}
