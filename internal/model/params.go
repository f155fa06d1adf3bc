package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AddLiquidityParams is the payload of a position-manager mint call.
type AddLiquidityParams struct {
	Token0         Token
	Token1         Token
	Fee            uint32
	TickLower      int32
	TickUpper      int32
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

// MintCallParams mirrors the INonfungiblePositionManager.MintParams tuple.
// Field names must match the ABI component names for abi.Pack.
type MintCallParams struct {
	Token0         common.Address
	Token1         common.Address
	Fee            *big.Int
	TickLower      *big.Int
	TickUpper      *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

// ABI converts params into the tuple accepted by mint.
func (p AddLiquidityParams) ABI() MintCallParams {
	return MintCallParams{
		Token0:         p.Token0.Address,
		Token1:         p.Token1.Address,
		Fee:            new(big.Int).SetUint64(uint64(p.Fee)),
		TickLower:      big.NewInt(int64(p.TickLower)),
		TickUpper:      big.NewInt(int64(p.TickUpper)),
		Amount0Desired: orZero(p.Amount0Desired),
		Amount1Desired: orZero(p.Amount1Desired),
		Amount0Min:     orZero(p.Amount0Min),
		Amount1Min:     orZero(p.Amount1Min),
		Recipient:      p.Recipient,
		Deadline:       orZero(p.Deadline),
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
