package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/config"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/dex"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/metrics"
)

type poolOutput struct {
	ChainID      uint64 `json:"chain_id"`
	Pool         string `json:"pool"`
	Fee          uint32 `json:"fee"`
	Token0       string `json:"token0"`
	Token1       string `json:"token1"`
	TickSpacing  int32  `json:"tick_spacing"`
	Tick         int32  `json:"tick"`
	Liquidity    string `json:"liquidity"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	TickLower    int32  `json:"tick_lower"`
	TickUpper    int32  `json:"tick_upper"`
}

func runPool(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPool(cfgFile, cmd.Flags())
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

	m := metrics.New()
	defer writeMetrics(m, cfg.Chain.MetricsFile, logger)

	info, err := newLocator(client, cfg.Chain, m, logger).LocatePool(ctx, cfg.TokenA, cfg.TokenB)
	if err != nil {
		return err
	}

	reader := dex.NewPoolReader(client, retryPolicy(cfg.Chain), m, logger)
	state, err := reader.ReadPoolState(ctx, info.Address)
	if err != nil {
		return err
	}
	token0, token1, err := reader.ReadPoolTokens(ctx, info.Address)
	if err != nil {
		return err
	}
	lower, upper, err := dex.ComputeTickRange(state.Tick, state.TickSpacing)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), poolOutput{
		ChainID:      chainID,
		Pool:         info.Address.Hex(),
		Fee:          info.Fee,
		Token0:       token0.Hex(),
		Token1:       token1.Hex(),
		TickSpacing:  state.TickSpacing,
		Tick:         state.Tick,
		Liquidity:    bigString(state.Liquidity),
		SqrtPriceX96: bigString(state.SqrtPriceX96),
		TickLower:    lower,
		TickUpper:    upper,
	})
}
