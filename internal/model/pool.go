package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PoolInfo identifies a pool found through the factory.
type PoolInfo struct {
	Address common.Address `json:"pool_address"`
	Fee     uint32         `json:"pool_fee"`
}

// PoolData is a point-in-time snapshot of a pool's mutable state.
type PoolData struct {
	TickSpacing  int32    `json:"tick_spacing"`
	Fee          uint32   `json:"fee"`
	Liquidity    *big.Int `json:"liquidity"`
	SqrtPriceX96 *big.Int `json:"sqrt_price_x96"`
	Tick         int32    `json:"tick"`
}

// Pool represents a pool metadata record for storage.
type Pool struct {
	ChainID     uint64 `json:"chain_id"`
	Address     string `json:"address"`
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
}
