package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/chain"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/config"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/dex"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/metrics"
)

func main() {
	root := &cobra.Command{
		Use:          "lpmanager",
		Short:        "DragonSwap V2 liquidity manager",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Locate a pool and mint a position around the current price",
		RunE:  runAdd,
	}

	addChainFlags(addCmd.Flags())
	addJournalFlags(addCmd.Flags())
	addCmd.Flags().String("token-a", "", "first token address")
	addCmd.Flags().String("token-b", "", "second token address")
	addCmd.Flags().String("amount-a", "", "amount of token-a in token units (e.g. 1.5)")
	addCmd.Flags().String("amount-b", "", "amount of token-b in token units")
	addCmd.Flags().String("liquidity", "", "target liquidity; derives both amounts from the pool price")
	addCmd.Flags().Int("slippage-bps", 50, "slippage tolerance in basis points for the minimum amounts")
	addCmd.Flags().String("recipient", "", "position recipient (defaults to the wallet)")
	addCmd.Flags().Duration("deadline", dex.DefaultDeadline, "mint deadline from now")
	addCmd.Flags().Uint64("mint-gas-limit", dex.DefaultMintGasLimit, "gas limit for the mint transaction")
	addCmd.Flags().Duration("receipt-timeout", 5*time.Minute, "maximum wait for each transaction receipt")
	addCmd.Flags().Bool("legacy-tx", false, "send type-0 transactions")
	addCmd.Flags().Bool("check-balance", false, "verify wallet balances before approving")
	addCmd.Flags().Bool("skip-approved", false, "skip approvals already covered by the current allowance")
	addCmd.Flags().Bool("dry-run", false, "print the planned mint without sending transactions")

	root.AddCommand(addCmd)

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Locate a pool, read its state and print the tick range that add would use",
		RunE:  runPool,
	}

	addChainFlags(poolCmd.Flags())
	poolCmd.Flags().String("token-a", "", "first token address")
	poolCmd.Flags().String("token-b", "", "second token address")

	root.AddCommand(poolCmd)

	rangeCmd := &cobra.Command{
		Use:   "range",
		Short: "Compute a tick range offline",
		RunE:  runRange,
	}

	rangeCmd.Flags().Int32("tick", 0, "current pool tick")
	rangeCmd.Flags().Int32("spacing", 0, "pool tick spacing")
	rangeCmd.Flags().String("sqrt-price", "", "optional sqrtPriceX96 for amount estimation")
	rangeCmd.Flags().String("liquidity", "", "optional liquidity for amount estimation")

	root.AddCommand(rangeCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded mint attempts",
		RunE:  runHistory,
	}

	addJournalFlags(historyCmd.Flags())
	historyCmd.Flags().Int("limit", 20, "maximum number of records, newest first")
	historyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(historyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "Kaia RPC URL")
	flags.Uint64("chain-id", 0, "chain id, 0 reads it from the RPC")
	flags.String("factory", dex.DefaultFactory, "V3 factory address")
	flags.String("position-manager", dex.DefaultPositionManager, "NonfungiblePositionManager address")
	flags.StringSlice("fee-tiers", nil, "fee tiers to try in order (default 100,200,500,2000,5000,10000)")
	flags.String("pool-policy", dex.SelectFirst, "pool selection: first or deepest")
	flags.Int("max-retries", 0, "extra attempts for failed read calls")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("metrics-file", "", "write Prometheus metrics to this file on exit")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addJournalFlags(flags *pflag.FlagSet) {
	flags.String("journal", config.JournalJSONL, "mint journal: jsonl, sqlite, postgres or none")
	flags.String("journal-path", "./data/mints.jsonl", "journal file for jsonl and sqlite")
	flags.String("pg-dsn", "", "Postgres DSN for the postgres journal")
}

// connect dials the RPC and resolves the chain id when it is not configured.
func connect(ctx context.Context, cfg config.ChainConfig) (*chain.Client, uint64, error) {
	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, 0, fmt.Errorf("connect rpc: %w", err)
	}
	chainID := cfg.ChainID
	if chainID == 0 {
		id, err := client.GetChainID(ctx)
		if err != nil {
			client.Close()
			return nil, 0, fmt.Errorf("get chain id: %w", err)
		}
		chainID = id.Uint64()
	}
	return client, chainID, nil
}

func newLocator(client dex.ContractCaller, cfg config.ChainConfig, m *metrics.Metrics, logger *zap.Logger) *dex.Locator {
	return dex.NewLocator(client, dex.LocatorConfig{
		Factory:  cfg.Factory,
		FeeTiers: cfg.FeeTiers,
		Policy:   cfg.PoolPolicy,
		Retry:    retryPolicy(cfg),
	}, m, logger)
}

func retryPolicy(cfg config.ChainConfig) dex.RetryPolicy {
	return dex.RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff}
}

func writeMetrics(m *metrics.Metrics, path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		logger.Warn("write metrics failed", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Debug("metrics written", zap.String("path", path))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
