package dex

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NoPoolFoundError is returned when the factory has no pool for the pair at any configured fee tier.
type NoPoolFoundError struct {
	TokenA   common.Address
	TokenB   common.Address
	FeeTiers []uint32
}

func (e *NoPoolFoundError) Error() string {
	return fmt.Sprintf("no pool found for %s/%s across fee tiers %v", e.TokenA.Hex(), e.TokenB.Hex(), e.FeeTiers)
}

// PoolReadError wraps the first failed state read of a pool.
type PoolReadError struct {
	Pool   common.Address
	Method string
	Err    error
}

func (e *PoolReadError) Error() string {
	return fmt.Sprintf("read pool %s %s: %v", e.Pool.Hex(), e.Method, e.Err)
}

func (e *PoolReadError) Unwrap() error { return e.Err }

// InvalidSpacingError is returned for a tick spacing of zero or less.
type InvalidSpacingError struct {
	Spacing int32
}

func (e *InvalidSpacingError) Error() string {
	return fmt.Sprintf("invalid tick spacing %d", e.Spacing)
}

// ApprovalError is returned when an ERC20 approval cannot be sent, confirmed, or reverts.
type ApprovalError struct {
	Token  common.Address
	TxHash common.Hash
	Err    error
}

func (e *ApprovalError) Error() string {
	if e.TxHash != (common.Hash{}) {
		return fmt.Sprintf("approve %s (tx %s): %v", e.Token.Hex(), e.TxHash.Hex(), e.Err)
	}
	return fmt.Sprintf("approve %s: %v", e.Token.Hex(), e.Err)
}

func (e *ApprovalError) Unwrap() error { return e.Err }

// MintError is returned when the mint transaction cannot be sent, confirmed, or reverts.
// TxHash is zero when the transaction was never broadcast.
type MintError struct {
	TxHash common.Hash
	Err    error
}

func (e *MintError) Error() string {
	if e.TxHash != (common.Hash{}) {
		return fmt.Sprintf("mint (tx %s): %v", e.TxHash.Hex(), e.Err)
	}
	return fmt.Sprintf("mint: %v", e.Err)
}

func (e *MintError) Unwrap() error { return e.Err }

// InsufficientBalanceError is returned by the balance pre-check.
type InsufficientBalanceError struct {
	Token    common.Address
	Balance  *big.Int
	Required *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance of %s: have %s, need %s", e.Token.Hex(), e.Balance, e.Required)
}

// ErrReverted marks a mined transaction whose receipt status is failed.
var ErrReverted = errors.New("transaction reverted")
