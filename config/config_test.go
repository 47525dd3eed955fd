package config_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/t3rntools/bridge-cycler/config"
)

const testCfg = `
chains:
  base_sepolia:
    rpc:
      host: https://base-sepolia.infura.io/v3/${INFURA_PROJECT_KEY}
      timeout: 30s
    chain_id: 84532
    api_name: bssp
    bridge_contract: 0xCEE0372632a37Ba4d0499D1E2116eCff3A17d3C3
  optimism_sepolia:
    rpc:
      host: https://sepolia.optimism.io
      timeout: 20s
    chain_id: 11155420
    api_name: opsp
    bridge_contract: 0xb6Def636914Ae60173d9007E732684a9eEDEF26E
api:
  base_url: https://api.t2rn.io
  timeout: 30s
  origin: https://unlock3d.t3rn.io
bridge:
  amount:
    min: 0.001
    max: 0.005
  repeat_count: 3
  gas_multiplier: 1.2
  from_chain: base_sepolia
  to_chain: optimism_sepolia
delays:
  between_wallets: 30s
  between_legs: 1m
  after_completion: 8h
retries:
  max_attempts: 5
  backoff_factor: 2
  initial_wait: 2s
workers: 4
use_proxy: true
keys_file: pk.txt
proxies_file: proxy.txt
metrics_host: 0.0.0.0:2112
postgres:
  user: test_user
  password: test_password
  host: test_host
  port: 5432
  database: test_db
presenter:
  host: 0.0.0.0:3333
log_level: info
`

//nolint:paralleltest
func TestReadConfigWithEnv(t *testing.T) {
	t.Setenv("INFURA_PROJECT_KEY", "12345678")
	cfg, err := config.ReadConfigWithEnv([]byte(testCfg))
	require.NoError(t, err)
	require.Equal(t, &config.Config{
		Chains: map[string]*config.ChainConfig{
			"base_sepolia": {
				RPC: &config.RPCConfig{
					Host:    "https://base-sepolia.infura.io/v3/12345678",
					Timeout: 30 * time.Second,
				},
				ChainID:        84532,
				APIName:        "bssp",
				BridgeContract: common.HexToAddress("0xCEE0372632a37Ba4d0499D1E2116eCff3A17d3C3"),
				NativeAsset:    "eth",
			},
			"optimism_sepolia": {
				RPC: &config.RPCConfig{
					Host:    "https://sepolia.optimism.io",
					Timeout: 20 * time.Second,
				},
				ChainID:        11155420,
				APIName:        "opsp",
				BridgeContract: common.HexToAddress("0xb6Def636914Ae60173d9007E732684a9eEDEF26E"),
				NativeAsset:    "eth",
			},
		},
		API: &config.APIConfig{
			BaseURL: "https://api.t2rn.io",
			Timeout: 30 * time.Second,
			Origin:  "https://unlock3d.t3rn.io",
		},
		Bridge: &config.BridgeConfig{
			Amount:            &config.AmountConfig{Min: 0.001, Max: 0.005},
			RepeatCount:       3,
			GasMultiplier:     1.2,
			WaitForCompletion: true,
			FromChain:         "base_sepolia",
			ToChain:           "optimism_sepolia",
			WalletTimeout:     45 * time.Minute,
			LegTimeout:        20 * time.Minute,
		},
		Delays: &config.DelayConfig{
			BetweenWallets:  30 * time.Second,
			BetweenLegs:     time.Minute,
			AfterCompletion: 8 * time.Hour,
		},
		Retries: &config.RetryConfig{
			MaxAttempts:   5,
			BackoffFactor: 2,
			InitialWait:   2 * time.Second,
		},
		Workers:     4,
		UseProxy:    true,
		KeysFile:    "pk.txt",
		ProxiesFile: "proxy.txt",
		MetricsHost: "0.0.0.0:2112",
		DBConfig: &config.DBConfig{
			User:     "test_user",
			Password: "test_password",
			Host:     "test_host",
			Port:     5432,
			DB:       "test_db",
		},
		Presenter: &config.PresenterConfig{
			Host: "0.0.0.0:3333",
		},
		LogLevel: logrus.InfoLevel,
	}, cfg)
}

func TestBridgeConfig_LegSequence(t *testing.T) {
	t.Parallel()

	cfg, err := config.ReadConfig([]byte(testCfg))
	require.NoError(t, err)
	require.Equal(t, []*config.LegConfig{
		{FromChain: "base_sepolia", ToChain: "optimism_sepolia"},
		{FromChain: "optimism_sepolia", ToChain: "base_sepolia"},
	}, cfg.Bridge.LegSequence())

	cfg.Bridge.Paths = []*config.LegConfig{
		{FromChain: "optimism_sepolia", ToChain: "base_sepolia"},
	}
	require.Equal(t, cfg.Bridge.Paths, cfg.Bridge.LegSequence())
}

const minimalCfg = `
chains:
  base_sepolia:
    rpc:
      host: https://sepolia.base.org
      timeout: 30s
    chain_id: 84532
    api_name: bssp
  optimism_sepolia:
    rpc:
      host: https://sepolia.optimism.io
      timeout: 30s
    chain_id: 11155420
    api_name: opsp
api:
  base_url: https://api.t2rn.io
  timeout: 30s
bridge:
  amount:
    min: %s
    max: %s
  from_chain: %s
  to_chain: optimism_sepolia
`

func TestReadConfigValidation(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name      string
		Min       string
		Max       string
		FromChain string
		OK        bool
	}{
		{"Valid minimal config", "0.001", "0.005", "base_sepolia", true},
		{"Unknown chain in path", "0.001", "0.005", "unknown_chain", false},
		{"Invalid amount range", "0.005", "0.001", "base_sepolia", false},
		{"Zero amount", "0", "0", "base_sepolia", false},
		{"Self-transfer leg", "0.001", "0.005", "optimism_sepolia", false},
	} {
		t.Logf("Running sub-test %q", test.Name)
		blob := fmt.Sprintf(minimalCfg, test.Min, test.Max, test.FromChain)
		cfg, err := config.ReadConfig([]byte(blob))
		if test.OK {
			require.NoError(t, err, "Failed %s", test.Name)
			require.Equal(t, 1, cfg.Workers)
			require.Equal(t, 3, cfg.Retries.MaxAttempts)
			require.Equal(t, 45*time.Minute, cfg.Bridge.WalletTimeout)
			require.True(t, cfg.Bridge.WaitForCompletion)
		} else {
			require.Error(t, err, "Failed %s", test.Name)
		}
	}
}
