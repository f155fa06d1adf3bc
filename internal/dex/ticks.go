package dex

import (
	"errors"
	"fmt"
	"math/big"

	v3entities "github.com/daoleno/uniswapv3-sdk/entities"
	v3utils "github.com/daoleno/uniswapv3-sdk/utils"
)

// Tick bounds of the V3 TickMath library.
const (
	MinTick int32 = v3utils.MinTick
	MaxTick int32 = v3utils.MaxTick
)

// RangeWidth is the number of tick spacings placed on each side of the current tick.
const RangeWidth = 2

var (
	MinSqrtRatio = new(big.Int).Set(v3utils.MinSqrtRatio)
	MaxSqrtRatio = new(big.Int).Set(v3utils.MaxSqrtRatio)

	ErrTickOutOfBounds = errors.New("tick out of bounds")
)

// NearestUsableTick rounds tick to the closest multiple of spacing, halves going up,
// and keeps the result inside [MinTick, MaxTick].
func NearestUsableTick(tick, spacing int32) (int32, error) {
	// the sdk panics on both of these
	if spacing <= 0 || spacing > MaxTick {
		return 0, &InvalidSpacingError{Spacing: spacing}
	}
	if tick < MinTick || tick > MaxTick {
		return 0, fmt.Errorf("tick %d: %w", tick, ErrTickOutOfBounds)
	}
	return int32(v3entities.NearestUsableTick(int(tick), int(spacing))), nil
}

// ComputeTickRange returns a range of RangeWidth spacings on each side of the usable tick
// nearest to currentTick. Near the tick extremes the bounds may fall outside
// [MinTick, MaxTick]; see CheckTickRange.
func ComputeTickRange(currentTick, tickSpacing int32) (lower, upper int32, err error) {
	center, err := NearestUsableTick(currentTick, tickSpacing)
	if err != nil {
		return 0, 0, err
	}
	return center - RangeWidth*tickSpacing, center + RangeWidth*tickSpacing, nil
}

// CheckTickRange rejects a range the pool would refuse to mint.
func CheckTickRange(lower, upper int32) error {
	if lower >= upper {
		return fmt.Errorf("tick lower %d must be below tick upper %d", lower, upper)
	}
	if lower < MinTick || upper > MaxTick {
		return fmt.Errorf("tick range (%d, %d): %w", lower, upper, ErrTickOutOfBounds)
	}
	return nil
}

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96 value, matching TickMath.sol.
func GetSqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("tick %d: %w", tick, ErrTickOutOfBounds)
	}
	return v3utils.GetSqrtRatioAtTick(int(tick))
}
