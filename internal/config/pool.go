package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// PoolConfig holds configuration for the pool command.
type PoolConfig struct {
	Chain  ChainConfig
	TokenA common.Address
	TokenB common.Address
}

// LoadPool merges config file, environment variables, and flags into PoolConfig.
func LoadPool(cfgFile string, flags *pflag.FlagSet) (PoolConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		setChainDefaults(v)
	})
	if err != nil {
		return PoolConfig{}, err
	}

	chainCfg, err := loadChain(v)
	if err != nil {
		return PoolConfig{}, err
	}

	cfg := PoolConfig{Chain: chainCfg}
	if cfg.TokenA, err = ParseAddress("token-a", v.GetString("token-a")); err != nil {
		return PoolConfig{}, err
	}
	if cfg.TokenB, err = ParseAddress("token-b", v.GetString("token-b")); err != nil {
		return PoolConfig{}, err
	}
	if cfg.TokenA == cfg.TokenB {
		return PoolConfig{}, fmt.Errorf("token-a and token-b must differ")
	}
	return cfg, nil
}
