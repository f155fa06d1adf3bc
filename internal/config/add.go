package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/dex"
)

// AddConfig holds configuration for the add command.
type AddConfig struct {
	Chain          ChainConfig
	PrivateKey     string
	TokenA         common.Address
	TokenB         common.Address
	AmountA        string
	AmountB        string
	Liquidity      *big.Int
	SlippageBps    uint32
	Recipient      common.Address
	Deadline       time.Duration
	MintGasLimit   uint64
	ReceiptTimeout time.Duration
	LegacyTx       bool
	CheckBalance   bool
	SkipApproved   bool
	DryRun         bool
	Journal        JournalConfig
}

// LoadAdd merges config file, environment variables, and flags into AddConfig.
func LoadAdd(cfgFile string, flags *pflag.FlagSet) (AddConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		setChainDefaults(v)
		setJournalDefaults(v)
		v.SetDefault("slippage-bps", 50)
		v.SetDefault("deadline", dex.DefaultDeadline)
		v.SetDefault("mint-gas-limit", dex.DefaultMintGasLimit)
		v.SetDefault("receipt-timeout", 5*time.Minute)
	})
	if err != nil {
		return AddConfig{}, err
	}

	chainCfg, err := loadChain(v)
	if err != nil {
		return AddConfig{}, err
	}
	journalCfg, err := loadJournal(v)
	if err != nil {
		return AddConfig{}, err
	}

	cfg := AddConfig{
		Chain:          chainCfg,
		PrivateKey:     strings.TrimSpace(v.GetString("private-key")),
		AmountA:        strings.TrimSpace(v.GetString("amount-a")),
		AmountB:        strings.TrimSpace(v.GetString("amount-b")),
		Deadline:       v.GetDuration("deadline"),
		MintGasLimit:   v.GetUint64("mint-gas-limit"),
		ReceiptTimeout: v.GetDuration("receipt-timeout"),
		LegacyTx:       v.GetBool("legacy-tx"),
		CheckBalance:   v.GetBool("check-balance"),
		SkipApproved:   v.GetBool("skip-approved"),
		DryRun:         v.GetBool("dry-run"),
		Journal:        journalCfg,
	}

	if cfg.PrivateKey == "" {
		return AddConfig{}, fmt.Errorf("private key is required (set %s_PRIVATE_KEY)", EnvPrefix)
	}
	if cfg.TokenA, err = ParseAddress("token-a", v.GetString("token-a")); err != nil {
		return AddConfig{}, err
	}
	if cfg.TokenB, err = ParseAddress("token-b", v.GetString("token-b")); err != nil {
		return AddConfig{}, err
	}
	if cfg.TokenA == cfg.TokenB {
		return AddConfig{}, fmt.Errorf("token-a and token-b must differ")
	}

	if raw := strings.TrimSpace(v.GetString("liquidity")); raw != "" {
		liquidity, ok := new(big.Int).SetString(raw, 10)
		if !ok || liquidity.Sign() <= 0 {
			return AddConfig{}, fmt.Errorf("liquidity must be a positive integer, got %q", raw)
		}
		cfg.Liquidity = liquidity
	} else if cfg.AmountA == "" || cfg.AmountB == "" {
		return AddConfig{}, fmt.Errorf("amount-a and amount-b are required unless liquidity is set")
	}

	bps := v.GetInt("slippage-bps")
	if bps < 0 || bps > dex.MaxSlippageBps {
		return AddConfig{}, fmt.Errorf("slippage-bps must be between 0 and %d", dex.MaxSlippageBps)
	}
	cfg.SlippageBps = uint32(bps)

	if raw := strings.TrimSpace(v.GetString("recipient")); raw != "" {
		if cfg.Recipient, err = ParseAddress("recipient", raw); err != nil {
			return AddConfig{}, err
		}
	}
	if cfg.Deadline <= 0 {
		return AddConfig{}, fmt.Errorf("deadline must be positive")
	}
	if cfg.MintGasLimit == 0 {
		return AddConfig{}, fmt.Errorf("mint-gas-limit must be positive")
	}

	return cfg, nil
}
