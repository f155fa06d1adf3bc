package dex

import (
	"fmt"
	"math/big"

	core "github.com/daoleno/uniswap-sdk-core/entities"
	v3utils "github.com/daoleno/uniswapv3-sdk/utils"
)

// MaxSlippageBps is 100% expressed in basis points.
const MaxSlippageBps = 10000

// ApplySlippage returns amount * (10000 - bps) / 10000, rounded down.
func ApplySlippage(amount *big.Int, bps uint32) (*big.Int, error) {
	if bps > MaxSlippageBps {
		return nil, fmt.Errorf("slippage %d bps exceeds %d", bps, MaxSlippageBps)
	}
	if amount == nil {
		return big.NewInt(0), nil
	}
	keep := core.NewPercent(big.NewInt(int64(MaxSlippageBps-bps)), big.NewInt(MaxSlippageBps))
	return core.NewFraction(amount, big.NewInt(1)).Multiply(keep.Fraction).Quotient(), nil
}

// AmountsForLiquidity returns the token amounts needed to mint liquidity in
// [tickLower, tickUpper] at the current sqrt price. Amounts round up so that a mint
// built from them always covers the requested liquidity.
func AmountsForLiquidity(sqrtPriceX96 *big.Int, tickLower, tickUpper int32, liquidity *big.Int) (*big.Int, *big.Int, error) {
	if tickLower >= tickUpper {
		return nil, nil, fmt.Errorf("tick lower %d must be below tick upper %d", tickLower, tickUpper)
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return nil, nil, fmt.Errorf("sqrt price must be positive")
	}
	if liquidity == nil || liquidity.Sign() < 0 {
		return nil, nil, fmt.Errorf("liquidity must not be negative")
	}

	sqrtA, err := GetSqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, nil, err
	}
	sqrtB, err := GetSqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, nil, err
	}

	// Same branches as Position.MintAmounts, keyed on the price rather than the tick so
	// that pools on fee tiers unknown to the sdk work too.
	amount0, amount1 := big.NewInt(0), big.NewInt(0)
	switch {
	case sqrtPriceX96.Cmp(sqrtA) <= 0:
		amount0 = v3utils.GetAmount0Delta(sqrtA, sqrtB, liquidity, true)
	case sqrtPriceX96.Cmp(sqrtB) < 0:
		amount0 = v3utils.GetAmount0Delta(sqrtPriceX96, sqrtB, liquidity, true)
		amount1 = v3utils.GetAmount1Delta(sqrtA, sqrtPriceX96, liquidity, true)
	default:
		amount1 = v3utils.GetAmount1Delta(sqrtA, sqrtB, liquidity, true)
	}
	return amount0, amount1, nil
}
