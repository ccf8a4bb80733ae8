// Package config loads measurement engine configuration from YAML files:
// network tunings, MEV heuristic constants and causation thresholds. Every
// heuristic constant carries a default, so a minimal file only names
// networks and endpoints.
package config

import (
	"math/big"
	"os"
	"time"

	commonerrors "github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ClipFinance/finality-lib/mevmonitor"
	"github.com/ClipFinance/finality-lib/reorgmonitor"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the root of a YAML configuration file.
type Config struct {
	// PrivateKey is the hex-encoded signing key for measurement transactions.
	PrivateKey string `yaml:"private_key"`
	// DatabaseUrl is the Postgres connection string for the measurement sink.
	DatabaseUrl string `yaml:"database_url"`
	// Networks lists the networks to measure.
	Networks []Network `yaml:"networks"`
	// Mev overrides the MEV monitor heuristics.
	Mev *Mev `yaml:"mev"`
	// Causation overrides the reorg causation assessment thresholds.
	Causation *Causation `yaml:"causation"`
}

// Network configures one network adapter. Zero fields fall back to the
// network's built-in tuning.
type Network struct {
	Name                string  `yaml:"name"`
	Class               string  `yaml:"class"`
	ChainID             uint64  `yaml:"chain_id"`
	RpcUrl              string  `yaml:"rpc_url"`
	BaseGasPriceWei     string  `yaml:"base_gas_price_wei"`
	GasFloorWei         string  `yaml:"gas_floor_wei"`
	GasLimit            uint64  `yaml:"gas_limit"`
	ConfirmationTarget  uint64  `yaml:"confirmation_target"`
	MevBaseline         float64 `yaml:"mev_baseline"`
	ExpectedBlockTimeMs int64   `yaml:"expected_block_time_ms"`
	TimeoutMs           int64   `yaml:"timeout_ms"`
	Retry               *Retry  `yaml:"retry"`
}

// Retry configures the backoff behavior for transient RPC failures.
type Retry struct {
	MaxRetries        int     `yaml:"max_retries"`
	BaseDelayMs       int64   `yaml:"base_delay_ms"`
	MaxDelayMs        int64   `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// Mev configures the MEV monitor heuristics.
type Mev struct {
	Smoothing   float64             `yaml:"smoothing"`
	WindowSize  int                 `yaml:"window_size"`
	NotableJump float64             `yaml:"notable_jump"`
	Weights     *mevmonitor.Weights `yaml:"weights"`
	Indicators  *Indicators         `yaml:"indicators"`
}

// Indicators configures the per-block indicator constants.
type Indicators struct {
	GasVarianceNorm     float64  `yaml:"gas_variance_norm"`
	HighGasMultiplier   float64  `yaml:"high_gas_multiplier"`
	RepeatedValueMin    int      `yaml:"repeated_value_min"`
	SandwichSpreadRatio float64  `yaml:"sandwich_spread_ratio"`
	DexGasLimitMin      uint64   `yaml:"dex_gas_limit_min"`
	BotAddresses        []string `yaml:"bot_addresses"`
	LendingAddresses    []string `yaml:"lending_addresses"`
}

// Causation configures the reorg MEV-causation assessment.
type Causation struct {
	GasVarianceThreshold float64 `yaml:"gas_variance_threshold"`
	SandwichThreshold    float64 `yaml:"sandwich_threshold"`
	ArbitrageThreshold   float64 `yaml:"arbitrage_threshold"`
	LiquidationThreshold float64 `yaml:"liquidation_threshold"`
	ExtractedValueUSD    float64 `yaml:"extracted_value_usd"`
	CauseThreshold       float64 `yaml:"cause_threshold"`
	EthPriceUSD          float64 `yaml:"eth_price_usd"`
}

// Load reads and parses a YAML configuration file.
//
// Parameters:
// - path: the file to read.
//
// Returns:
// - *Config: the parsed configuration.
// - error: an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return Parse(data)
}

// Parse parses YAML configuration bytes.
//
// Parameters:
// - data: the YAML document.
//
// Returns:
// - *Config: the parsed configuration.
// - error: an error if the document is malformed or a network entry is
//   incomplete.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	for _, network := range cfg.Networks {
		if network.Name == "" {
			return nil, errors.Wrap(commonerrors.ErrInvalidConfig, "network entries require a name")
		}
		if network.RpcUrl == "" {
			return nil, errors.Wrapf(commonerrors.ErrInvalidConfig, "network %s requires an rpc url", network.Name)
		}
		if !types.NetworkClass(network.Class).Valid() {
			return nil, errors.Wrapf(commonerrors.ErrInvalidClass, "network %s: unknown class %q", network.Name, network.Class)
		}
	}

	return &cfg, nil
}

// NetworkConfig converts a network entry into an adapter configuration
// override. Gas amounts must be decimal wei strings.
//
// Returns:
// - *types.NetworkConfig: the override; zero fields defer to the built-in
//   tuning.
// - error: an error if a gas amount does not parse.
func (n Network) NetworkConfig() (*types.NetworkConfig, error) {
	config := &types.NetworkConfig{
		Name:               n.Name,
		Class:              types.NetworkClass(n.Class),
		ChainID:            n.ChainID,
		RpcUrl:             n.RpcUrl,
		GasLimit:           n.GasLimit,
		ConfirmationTarget: n.ConfirmationTarget,
		MevBaseline:        n.MevBaseline,
		ExpectedBlockTime:  time.Duration(n.ExpectedBlockTimeMs) * time.Millisecond,
		Timeout:            time.Duration(n.TimeoutMs) * time.Millisecond,
	}

	if n.BaseGasPriceWei != "" {
		price, ok := new(big.Int).SetString(n.BaseGasPriceWei, 10)
		if !ok {
			return nil, errors.Wrapf(commonerrors.ErrInvalidConfig, "network %s: invalid base gas price %q", n.Name, n.BaseGasPriceWei)
		}
		config.BaseGasPrice = price
	}
	if n.GasFloorWei != "" {
		floor, ok := new(big.Int).SetString(n.GasFloorWei, 10)
		if !ok {
			return nil, errors.Wrapf(commonerrors.ErrInvalidConfig, "network %s: invalid gas floor %q", n.Name, n.GasFloorWei)
		}
		config.GasFloor = floor
	}
	if n.Retry != nil {
		config.Retry = types.RetryConfig{
			MaxRetries:        n.Retry.MaxRetries,
			BaseDelay:         time.Duration(n.Retry.BaseDelayMs) * time.Millisecond,
			MaxDelay:          time.Duration(n.Retry.MaxDelayMs) * time.Millisecond,
			BackoffMultiplier: n.Retry.BackoffMultiplier,
		}
	}

	return config, nil
}

// MevConfig materializes a MEV monitor configuration for one network,
// overlaying the file's overrides onto the defaults.
//
// Parameters:
// - network: the network name.
// - blockTime: the network's expected block interval.
//
// Returns:
// - mevmonitor.Config: the monitor configuration.
func (c *Config) MevConfig(network string, blockTime time.Duration) mevmonitor.Config {
	cfg := mevmonitor.DefaultConfig(network, blockTime)
	if c.Mev == nil {
		return cfg
	}

	if c.Mev.Smoothing > 0 {
		cfg.Smoothing = c.Mev.Smoothing
	}
	if c.Mev.WindowSize > 0 {
		cfg.WindowSize = c.Mev.WindowSize
	}
	if c.Mev.NotableJump > 0 {
		cfg.NotableJump = c.Mev.NotableJump
	}
	if c.Mev.Weights != nil {
		cfg.Weights = *c.Mev.Weights
	}
	if c.Mev.Indicators != nil {
		cfg.Indicators = c.Mev.Indicators.indicatorConfig()
	}

	return cfg
}

// CausationConfig materializes the reorg causation tuning, overlaying the
// file's overrides onto the defaults.
func (c *Config) CausationConfig() reorgmonitor.CausationConfig {
	cfg := reorgmonitor.DefaultCausationConfig()
	if c.Causation == nil {
		return cfg
	}

	if c.Causation.GasVarianceThreshold > 0 {
		cfg.GasVarianceThreshold = c.Causation.GasVarianceThreshold
	}
	if c.Causation.SandwichThreshold > 0 {
		cfg.SandwichThreshold = c.Causation.SandwichThreshold
	}
	if c.Causation.ArbitrageThreshold > 0 {
		cfg.ArbitrageThreshold = c.Causation.ArbitrageThreshold
	}
	if c.Causation.LiquidationThreshold > 0 {
		cfg.LiquidationThreshold = c.Causation.LiquidationThreshold
	}
	if c.Causation.ExtractedValueUSD > 0 {
		cfg.ExtractedValueUSD = c.Causation.ExtractedValueUSD
	}
	if c.Causation.CauseThreshold > 0 {
		cfg.CauseThreshold = c.Causation.CauseThreshold
	}
	if c.Causation.EthPriceUSD > 0 {
		cfg.EthPriceUSD = c.Causation.EthPriceUSD
	}

	return cfg
}

func (i Indicators) indicatorConfig() mevmonitor.IndicatorConfig {
	cfg := mevmonitor.DefaultIndicatorConfig()

	if i.GasVarianceNorm > 0 {
		cfg.GasVarianceNorm = i.GasVarianceNorm
	}
	if i.HighGasMultiplier > 0 {
		cfg.HighGasMultiplier = i.HighGasMultiplier
	}
	if i.RepeatedValueMin > 0 {
		cfg.RepeatedValueMin = i.RepeatedValueMin
	}
	if i.SandwichSpreadRatio > 0 {
		cfg.SandwichSpreadRatio = i.SandwichSpreadRatio
	}
	if i.DexGasLimitMin > 0 {
		cfg.DexGasLimitMin = i.DexGasLimitMin
	}
	if len(i.BotAddresses) > 0 {
		cfg.BotAddresses = addressSet(i.BotAddresses)
	}
	if len(i.LendingAddresses) > 0 {
		cfg.LendingAddresses = addressSet(i.LendingAddresses)
	}

	return cfg
}

func addressSet(hexes []string) map[common.Address]bool {
	set := make(map[common.Address]bool, len(hexes))
	for _, hex := range hexes {
		set[common.HexToAddress(hex)] = true
	}
	return set
}
