package dex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/metrics"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/model"
)

// PoolReader reads the mutable state of a V3 pool.
type PoolReader struct {
	caller  ContractCaller
	retry   RetryPolicy
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewPoolReader creates a PoolReader.
func NewPoolReader(caller ContractCaller, retry RetryPolicy, m *metrics.Metrics, logger *zap.Logger) *PoolReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolReader{caller: caller, retry: retry, metrics: m, logger: logger}
}

// ReadPoolState issues tickSpacing, fee, liquidity and slot0 concurrently. Any failed read
// fails the whole snapshot with a *PoolReadError.
func (r *PoolReader) ReadPoolState(ctx context.Context, pool common.Address) (model.PoolData, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return model.PoolData{}, fmt.Errorf("parse pool abi: %w", err)
	}

	var data model.PoolData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		values, err := r.call(gctx, pool, poolABI, "tickSpacing")
		if err != nil {
			return err
		}
		spacing, err := asBigInt(values[0])
		if err == nil {
			data.TickSpacing, err = int24FromBig(spacing)
		}
		return r.wrap(pool, "tickSpacing", err)
	})

	g.Go(func() error {
		values, err := r.call(gctx, pool, poolABI, "fee")
		if err != nil {
			return err
		}
		fee, err := asBigInt(values[0])
		if err == nil {
			data.Fee, err = uint24FromBig(fee)
		}
		return r.wrap(pool, "fee", err)
	})

	g.Go(func() error {
		values, err := r.call(gctx, pool, poolABI, "liquidity")
		if err != nil {
			return err
		}
		data.Liquidity, err = asBigInt(values[0])
		return r.wrap(pool, "liquidity", err)
	})

	g.Go(func() error {
		values, err := r.call(gctx, pool, poolABI, "slot0")
		if err != nil {
			return err
		}
		if len(values) < 2 {
			return r.wrap(pool, "slot0", fmt.Errorf("unexpected output length %d", len(values)))
		}
		data.SqrtPriceX96, err = asBigInt(values[0])
		if err != nil {
			return r.wrap(pool, "slot0", err)
		}
		tick, err := asBigInt(values[1])
		if err == nil {
			data.Tick, err = int24FromBig(tick)
		}
		return r.wrap(pool, "slot0", err)
	})

	if err := g.Wait(); err != nil {
		r.logger.Warn("pool state read failed", zap.String("pool", pool.Hex()), zap.Error(err))
		return model.PoolData{}, err
	}

	r.logger.Debug("pool state",
		zap.String("pool", pool.Hex()),
		zap.Int32("tick_spacing", data.TickSpacing),
		zap.Uint32("fee", data.Fee),
		zap.String("liquidity", data.Liquidity.String()),
		zap.String("sqrt_price_x96", data.SqrtPriceX96.String()),
		zap.Int32("tick", data.Tick),
	)
	return data, nil
}

// ReadPoolTokens returns the pool's token0 and token1.
func (r *PoolReader) ReadPoolTokens(ctx context.Context, pool common.Address) (common.Address, common.Address, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("parse pool abi: %w", err)
	}

	var tokens [2]common.Address
	for i, method := range []string{"token0", "token1"} {
		values, err := r.call(ctx, pool, poolABI, method)
		if err != nil {
			return common.Address{}, common.Address{}, err
		}
		tokens[i], err = asAddress(values[0])
		if err != nil {
			return common.Address{}, common.Address{}, r.wrap(pool, method, err)
		}
	}
	return tokens[0], tokens[1], nil
}

func (r *PoolReader) call(ctx context.Context, pool common.Address, poolABI abi.ABI, method string) ([]interface{}, error) {
	var values []interface{}
	err := r.retry.do(ctx, func(ctx context.Context) error {
		var callErr error
		values, callErr = callMethod(ctx, r.caller, pool, poolABI, method)
		r.metrics.ObserveCall(method, callErr)
		return callErr
	})
	if err != nil {
		return nil, r.wrap(pool, method, err)
	}
	return values, nil
}

func (r *PoolReader) wrap(pool common.Address, method string, err error) error {
	if err == nil {
		return nil
	}
	return &PoolReadError{Pool: pool, Method: method, Err: err}
}
