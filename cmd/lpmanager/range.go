package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/dex"
)

type rangeOutput struct {
	Tick      int32  `json:"tick"`
	Spacing   int32  `json:"spacing"`
	Nearest   int32  `json:"nearest_usable_tick"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount0   string `json:"amount0,omitempty"`
	Amount1   string `json:"amount1,omitempty"`
}

func runRange(cmd *cobra.Command, _ []string) error {
	tick, _ := cmd.Flags().GetInt32("tick")
	spacing, _ := cmd.Flags().GetInt32("spacing")
	sqrtPriceRaw, _ := cmd.Flags().GetString("sqrt-price")
	liquidityRaw, _ := cmd.Flags().GetString("liquidity")

	nearest, err := dex.NearestUsableTick(tick, spacing)
	if err != nil {
		return err
	}
	lower, upper, err := dex.ComputeTickRange(tick, spacing)
	if err != nil {
		return err
	}
	out := rangeOutput{Tick: tick, Spacing: spacing, Nearest: nearest, TickLower: lower, TickUpper: upper}

	if liquidityRaw != "" {
		liquidity, ok := new(big.Int).SetString(liquidityRaw, 10)
		if !ok {
			return fmt.Errorf("invalid liquidity %q", liquidityRaw)
		}
		var sqrtPrice *big.Int
		if sqrtPriceRaw != "" {
			if sqrtPrice, ok = new(big.Int).SetString(sqrtPriceRaw, 10); !ok {
				return fmt.Errorf("invalid sqrt price %q", sqrtPriceRaw)
			}
		} else if sqrtPrice, err = dex.GetSqrtRatioAtTick(tick); err != nil {
			return err
		}
		amount0, amount1, err := dex.AmountsForLiquidity(sqrtPrice, lower, upper, liquidity)
		if err != nil {
			return err
		}
		out.Amount0, out.Amount1 = amount0.String(), amount1.String()
	}

	return printJSON(cmd.OutOrStdout(), out)
}
