package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/dex"
)

// EnvPrefix prefixes every environment variable, e.g. LPM_RPC or LPM_PRIVATE_KEY.
const EnvPrefix = "LPM"

// ChainConfig holds the settings shared by commands that talk to the chain.
type ChainConfig struct {
	RPCURL          string
	ChainID         uint64
	Factory         common.Address
	PositionManager common.Address
	FeeTiers        []uint32
	PoolPolicy      string
	MaxRetries      int
	RetryBackoff    time.Duration
	MetricsFile     string
	LogLevel        string
}

func setChainDefaults(v *viper.Viper) {
	v.SetDefault("factory", dex.DefaultFactory)
	v.SetDefault("position-manager", dex.DefaultPositionManager)
	v.SetDefault("pool-policy", dex.SelectFirst)
	v.SetDefault("max-retries", 0)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
}

func loadChain(v *viper.Viper) (ChainConfig, error) {
	cfg := ChainConfig{
		RPCURL:       v.GetString("rpc"),
		ChainID:      v.GetUint64("chain-id"),
		PoolPolicy:   strings.ToLower(v.GetString("pool-policy")),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		MetricsFile:  v.GetString("metrics-file"),
		LogLevel:     v.GetString("log-level"),
	}

	if cfg.RPCURL == "" {
		return ChainConfig{}, fmt.Errorf("rpc url is required")
	}
	if cfg.PoolPolicy != dex.SelectFirst && cfg.PoolPolicy != dex.SelectDeepest {
		return ChainConfig{}, fmt.Errorf("pool-policy must be %q or %q", dex.SelectFirst, dex.SelectDeepest)
	}
	if cfg.MaxRetries < 0 {
		return ChainConfig{}, fmt.Errorf("max-retries must not be negative")
	}

	var err error
	if cfg.Factory, err = ParseAddress("factory", v.GetString("factory")); err != nil {
		return ChainConfig{}, err
	}
	if cfg.PositionManager, err = ParseAddress("position-manager", v.GetString("position-manager")); err != nil {
		return ChainConfig{}, err
	}

	tiers := getStringSlice(v, "fee-tiers")
	if len(tiers) == 0 {
		cfg.FeeTiers = append([]uint32(nil), dex.DefaultFeeTiers...)
	} else if cfg.FeeTiers, err = ParseFeeTiers(tiers); err != nil {
		return ChainConfig{}, err
	}

	return cfg, nil
}

// newViper layers defaults, config file, LPM_* environment variables and flags.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(*viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

// ParseAddress validates a hex address value.
func ParseAddress(name, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", name, value)
	}
	return common.HexToAddress(value), nil
}

// ParseFeeTiers parses fee tiers in hundredths of a bip. Each must fit in uint24.
func ParseFeeTiers(items []string) ([]uint32, error) {
	out := make([]uint32, 0, len(items))
	seen := make(map[uint32]struct{}, len(items))
	for _, item := range items {
		fee, err := strconv.ParseUint(strings.TrimSpace(item), 10, 24)
		if err != nil {
			return nil, fmt.Errorf("invalid fee tier %q: %w", item, err)
		}
		if _, dup := seen[uint32(fee)]; dup {
			continue
		}
		seen[uint32(fee)] = struct{}{}
		out = append(out, uint32(fee))
	}
	return out, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(flattenCommas(typed))
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func flattenCommas(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.Split(item, ",")...)
	}
	return out
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
