package model

// Mint statuses stored in MintRecord.Status.
const (
	MintStatusConfirmed = "confirmed"
	MintStatusReverted  = "reverted"
	MintStatusFailed    = "failed"
)

// MintedPosition is decoded from the position manager's IncreaseLiquidity event.
type MintedPosition struct {
	TokenID   string `json:"token_id"`
	Liquidity string `json:"liquidity"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}

// MintRecord is the journal entry for a single mint attempt.
type MintRecord struct {
	ChainID        uint64          `json:"chain_id"`
	Pool           string          `json:"pool"`
	Token0         string          `json:"token0"`
	Token1         string          `json:"token1"`
	Fee            uint32          `json:"fee"`
	TickSpacing    int32           `json:"tick_spacing"`
	TickLower      int32           `json:"tick_lower"`
	TickUpper      int32           `json:"tick_upper"`
	Amount0Desired string          `json:"amount0_desired"`
	Amount1Desired string          `json:"amount1_desired"`
	Amount0Min     string          `json:"amount0_min"`
	Amount1Min     string          `json:"amount1_min"`
	Recipient      string          `json:"recipient"`
	Deadline       uint64          `json:"deadline"`
	TxHash         string          `json:"tx_hash,omitempty"`
	BlockNumber    uint64          `json:"block_number,omitempty"`
	GasUsed        uint64          `json:"gas_used,omitempty"`
	Status         string          `json:"status"`
	Position       *MintedPosition `json:"position,omitempty"`
	Error          string          `json:"error,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

// PoolRecord extracts the pool metadata row from the record.
func (r MintRecord) PoolRecord() Pool {
	return Pool{
		ChainID:     r.ChainID,
		Address:     r.Pool,
		Token0:      r.Token0,
		Token1:      r.Token1,
		Fee:         r.Fee,
		TickSpacing: r.TickSpacing,
	}
}
