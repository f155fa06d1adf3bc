package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/chain"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/config"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/dex"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/metrics"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/storage"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/units"
)

type planOutput struct {
	Pool           string `json:"pool"`
	Fee            uint32 `json:"fee"`
	TickSpacing    int32  `json:"tick_spacing"`
	Tick           int32  `json:"tick"`
	TickLower      int32  `json:"tick_lower"`
	TickUpper      int32  `json:"tick_upper"`
	Token0         string `json:"token0"`
	Token1         string `json:"token1"`
	Amount0Desired string `json:"amount0_desired"`
	Amount1Desired string `json:"amount1_desired"`
	Amount0Min     string `json:"amount0_min"`
	Amount1Min     string `json:"amount1_min"`
	Recipient      string `json:"recipient"`
	Deadline       string `json:"deadline"`
}

func runAdd(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAdd(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Chain.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, chainID, err := connect(ctx, cfg.Chain)
	if err != nil {
		return err
	}
	defer client.Close()

	wallet, err := chain.NewWallet(client, cfg.PrivateKey, new(big.Int).SetUint64(chainID), cfg.LegacyTx)
	if err != nil {
		return err
	}

	m := metrics.New()
	defer writeMetrics(m, cfg.Chain.MetricsFile, logger)

	var journal dex.Journal
	if cfg.Journal.Kind != config.JournalNone && !cfg.DryRun {
		store, err := storage.Open(ctx, cfg.Journal.Kind, cfg.Journal.Target())
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()
		journal = store
	}

	reader := dex.NewPoolReader(client, retryPolicy(cfg.Chain), m, logger)
	submitter := dex.NewSubmitter(wallet, client, dex.SubmitterConfig{
		PositionManager:         cfg.Chain.PositionManager,
		MintGasLimit:            cfg.MintGasLimit,
		ReceiptTimeout:          cfg.ReceiptTimeout,
		SkipSufficientAllowance: cfg.SkipApproved,
	}, m, logger)
	manager := dex.NewManager(chainID, client, newLocator(client, cfg.Chain, m, logger), reader, submitter, journal, m, logger)

	req := dex.Request{
		TokenA:       cfg.TokenA,
		TokenB:       cfg.TokenB,
		AmountA:      cfg.AmountA,
		AmountB:      cfg.AmountB,
		Liquidity:    cfg.Liquidity,
		SlippageBps:  cfg.SlippageBps,
		Recipient:    cfg.Recipient,
		Deadline:     cfg.Deadline,
		CheckBalance: cfg.CheckBalance,
	}

	logger.Info("add liquidity start",
		zap.String("rpc", cfg.Chain.RPCURL),
		zap.Uint64("chain_id", chainID),
		zap.String("wallet", wallet.Address().Hex()),
		zap.String("token_a", cfg.TokenA.Hex()),
		zap.String("token_b", cfg.TokenB.Hex()),
		zap.Uint32s("fee_tiers", cfg.Chain.FeeTiers),
		zap.String("pool_policy", cfg.Chain.PoolPolicy),
		zap.Uint32("slippage_bps", cfg.SlippageBps),
		zap.Bool("dry_run", cfg.DryRun),
	)

	if cfg.DryRun {
		plan, err := manager.Plan(ctx, req)
		if err != nil {
			return err
		}
		p := plan.Params
		return printJSON(cmd.OutOrStdout(), planOutput{
			Pool:           plan.Pool.Address.Hex(),
			Fee:            plan.Pool.Fee,
			TickSpacing:    plan.State.TickSpacing,
			Tick:           plan.State.Tick,
			TickLower:      p.TickLower,
			TickUpper:      p.TickUpper,
			Token0:         p.Token0.Label(),
			Token1:         p.Token1.Label(),
			Amount0Desired: units.FormatUnits(p.Amount0Desired, p.Token0.Decimals),
			Amount1Desired: units.FormatUnits(p.Amount1Desired, p.Token1.Decimals),
			Amount0Min:     units.FormatUnits(p.Amount0Min, p.Token0.Decimals),
			Amount1Min:     units.FormatUnits(p.Amount1Min, p.Token1.Decimals),
			Recipient:      p.Recipient.Hex(),
			Deadline:       bigString(p.Deadline),
		})
	}

	record, err := manager.AddLiquidity(ctx, req)
	if record.Status != "" {
		if perr := printJSON(cmd.OutOrStdout(), record); perr != nil {
			logger.Warn("print record failed", zap.Error(perr))
		}
	}
	return err
}
