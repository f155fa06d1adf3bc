package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/dex"
)

const (
	tokenA = "0x1111111111111111111111111111111111111111"
	tokenB = "0x2222222222222222222222222222222222222222"
)

func addFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("add", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("token-a", "", "")
	flags.String("token-b", "", "")
	flags.String("amount-a", "", "")
	flags.String("amount-b", "", "")
	flags.String("liquidity", "", "")
	flags.Int("slippage-bps", 50, "")
	flags.StringSlice("fee-tiers", nil, "")
	flags.String("pool-policy", "first", "")
	flags.Duration("receipt-timeout", 5*time.Minute, "")
	flags.Bool("dry-run", false, "")
	return flags
}

func TestLoadAddDefaults(t *testing.T) {
	t.Setenv("LPM_PRIVATE_KEY", "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	flags := addFlags()
	if err := flags.Parse([]string{
		"--rpc", "http://localhost:8551",
		"--token-a", tokenA,
		"--token-b", tokenB,
		"--amount-a", "1",
		"--amount-b", "2.5",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadAdd("", flags)
	if err != nil {
		t.Fatalf("load add: %v", err)
	}

	if cfg.Chain.RPCURL != "http://localhost:8551" {
		t.Fatalf("unexpected rpc %q", cfg.Chain.RPCURL)
	}
	if !reflect.DeepEqual(cfg.Chain.FeeTiers, dex.DefaultFeeTiers) {
		t.Fatalf("unexpected fee tiers %v", cfg.Chain.FeeTiers)
	}
	if cfg.Chain.Factory != common.HexToAddress(dex.DefaultFactory) {
		t.Fatalf("unexpected factory %s", cfg.Chain.Factory.Hex())
	}
	if cfg.Chain.PositionManager != common.HexToAddress(dex.DefaultPositionManager) {
		t.Fatalf("unexpected position manager %s", cfg.Chain.PositionManager.Hex())
	}
	if cfg.Chain.PoolPolicy != dex.SelectFirst || cfg.Chain.MaxRetries != 0 {
		t.Fatalf("unexpected policy %q retries %d", cfg.Chain.PoolPolicy, cfg.Chain.MaxRetries)
	}
	if cfg.SlippageBps != 50 || cfg.Deadline != dex.DefaultDeadline || cfg.MintGasLimit != dex.DefaultMintGasLimit {
		t.Fatalf("unexpected tx defaults: %+v", cfg)
	}
	if cfg.TokenA != common.HexToAddress(tokenA) || cfg.AmountB != "2.5" {
		t.Fatalf("unexpected request fields: %+v", cfg)
	}
	if cfg.Journal.Kind != JournalJSONL || cfg.Journal.Target() != "./data/mints.jsonl" {
		t.Fatalf("unexpected journal %+v", cfg.Journal)
	}
}

func TestLoadAddEnvAndFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "lpm.yaml")
	content := []byte("rpc: https://public-en-kairos.node.kaia.io\nfee-tiers: [500, 100]\nslippage-bps: 100\npool-policy: deepest\n")
	if err := os.WriteFile(cfgFile, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LPM_PRIVATE_KEY", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	t.Setenv("LPM_TOKEN_A", tokenA)
	t.Setenv("LPM_TOKEN_B", tokenB)
	t.Setenv("LPM_LIQUIDITY", "1000000")

	cfg, err := LoadAdd(cfgFile, nil)
	if err != nil {
		t.Fatalf("load add: %v", err)
	}
	if !reflect.DeepEqual(cfg.Chain.FeeTiers, []uint32{500, 100}) {
		t.Fatalf("unexpected fee tiers %v", cfg.Chain.FeeTiers)
	}
	if cfg.SlippageBps != 100 || cfg.Chain.PoolPolicy != dex.SelectDeepest {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Liquidity == nil || cfg.Liquidity.Int64() != 1000000 {
		t.Fatalf("unexpected liquidity %v", cfg.Liquidity)
	}
}

func TestLoadAddValidation(t *testing.T) {
	cases := map[string][]string{
		"missing key":       {"--rpc", "http://x", "--token-a", tokenA, "--token-b", tokenB, "--amount-a", "1", "--amount-b", "1"},
		"same tokens":       {"--rpc", "http://x", "--token-a", tokenA, "--token-b", tokenA, "--amount-a", "1", "--amount-b", "1", "--dry-run"},
		"missing amounts":   {"--rpc", "http://x", "--token-a", tokenA, "--token-b", tokenB, "--dry-run"},
		"bad slippage":      {"--rpc", "http://x", "--token-a", tokenA, "--token-b", tokenB, "--amount-a", "1", "--amount-b", "1", "--slippage-bps", "10001", "--dry-run"},
		"bad fee tier":      {"--rpc", "http://x", "--token-a", tokenA, "--token-b", tokenB, "--amount-a", "1", "--amount-b", "1", "--fee-tiers", "500,abc", "--dry-run"},
		"bad policy":        {"--rpc", "http://x", "--token-a", tokenA, "--token-b", tokenB, "--amount-a", "1", "--amount-b", "1", "--pool-policy", "random", "--dry-run"},
		"missing rpc":       {"--token-a", tokenA, "--token-b", tokenB, "--amount-a", "1", "--amount-b", "1", "--dry-run"},
		"invalid liquidity": {"--rpc", "http://x", "--token-a", tokenA, "--token-b", tokenB, "--liquidity", "-5", "--dry-run"},
	}

	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			key := "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
			if name == "missing key" {
				key = ""
			}
			t.Setenv("LPM_PRIVATE_KEY", key)
			flags := addFlags()
			if err := flags.Parse(args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}
			if _, err := LoadAdd("", flags); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestParseFeeTiers(t *testing.T) {
	got, err := ParseFeeTiers([]string{"100", " 500 ", "100", "10000"})
	if err != nil {
		t.Fatalf("parse fee tiers: %v", err)
	}
	if !reflect.DeepEqual(got, []uint32{100, 500, 10000}) {
		t.Fatalf("unexpected tiers %v", got)
	}
	if _, err := ParseFeeTiers([]string{"16777216"}); err == nil {
		t.Fatalf("expected uint24 overflow error")
	}
}

func TestLoadHistory(t *testing.T) {
	flags := pflag.NewFlagSet("history", pflag.ContinueOnError)
	flags.String("journal", "jsonl", "")
	flags.String("journal-path", "./data/mints.jsonl", "")
	flags.Int("limit", 20, "")
	if err := flags.Parse([]string{"--journal", "sqlite", "--journal-path", "/tmp/mints.db", "--limit", "5"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadHistory("", flags)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	want := HistoryConfig{
		Journal:  JournalConfig{Kind: JournalSQLite, Path: "/tmp/mints.db"},
		Limit:    5,
		LogLevel: "info",
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
