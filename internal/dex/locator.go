package dex

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/chain"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/metrics"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/model"
)

// Public DragonSwap V2 deployments on Kaia.
const (
	DefaultFactory         = "0x7431A23897ecA6913D5c81666345D39F27d946A4"
	DefaultPositionManager = "0x68f762d28CebaD501c090949e4680697e56848fC"
)

// Pool selection policies.
const (
	SelectFirst   = "first"
	SelectDeepest = "deepest"
)

// DefaultFeeTiers lists DragonSwap V2 fee tiers in hundredths of a bip, in the order they are tried.
var DefaultFeeTiers = []uint32{100, 200, 500, 2000, 5000, 10000}

// RetryPolicy controls re-attempts of read calls. The zero value makes a single attempt.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

func (p RetryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	return chain.WithRetry(ctx, p.MaxRetries, p.Backoff, fn)
}

// LocatorConfig configures pool discovery.
type LocatorConfig struct {
	Factory  common.Address
	FeeTiers []uint32
	Policy   string
	Retry    RetryPolicy
}

// Locator finds a pool for a token pair through the factory.
type Locator struct {
	caller  ContractCaller
	cfg     LocatorConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewLocator creates a Locator. Empty fee tiers and policy fall back to the defaults.
func NewLocator(caller ContractCaller, cfg LocatorConfig, m *metrics.Metrics, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.FeeTiers) == 0 {
		cfg.FeeTiers = DefaultFeeTiers
	}
	if cfg.Policy == "" {
		cfg.Policy = SelectFirst
	}
	return &Locator{caller: caller, cfg: cfg, metrics: m, logger: logger}
}

// LocatePool returns the pool for tokenA/tokenB. With the first policy it stops at the
// first fee tier with a deployed pool; with the deepest policy it queries every tier and
// picks the pool with the most in-range liquidity.
func (l *Locator) LocatePool(ctx context.Context, tokenA, tokenB common.Address) (model.PoolInfo, error) {
	switch l.cfg.Policy {
	case SelectFirst:
		return l.locateFirst(ctx, tokenA, tokenB)
	case SelectDeepest:
		return l.locateDeepest(ctx, tokenA, tokenB)
	default:
		return model.PoolInfo{}, fmt.Errorf("unknown pool selection policy %q", l.cfg.Policy)
	}
}

func (l *Locator) locateFirst(ctx context.Context, tokenA, tokenB common.Address) (model.PoolInfo, error) {
	for _, fee := range l.cfg.FeeTiers {
		pool, err := l.getPool(ctx, tokenA, tokenB, fee)
		if err != nil {
			return model.PoolInfo{}, err
		}
		if pool == (common.Address{}) {
			l.logger.Debug("no pool at fee tier", zap.Uint32("fee", fee))
			continue
		}
		l.found(pool, fee)
		return model.PoolInfo{Address: pool, Fee: fee}, nil
	}
	return model.PoolInfo{}, l.notFound(tokenA, tokenB)
}

func (l *Locator) locateDeepest(ctx context.Context, tokenA, tokenB common.Address) (model.PoolInfo, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return model.PoolInfo{}, fmt.Errorf("parse pool abi: %w", err)
	}

	var (
		best      model.PoolInfo
		bestDepth = big0()
		matched   bool
	)
	for _, fee := range l.cfg.FeeTiers {
		pool, err := l.getPool(ctx, tokenA, tokenB, fee)
		if err != nil {
			return model.PoolInfo{}, err
		}
		if pool == (common.Address{}) {
			continue
		}

		var values []interface{}
		err = l.cfg.Retry.do(ctx, func(ctx context.Context) error {
			var callErr error
			values, callErr = callMethod(ctx, l.caller, pool, poolABI, "liquidity")
			l.metrics.ObserveCall("liquidity", callErr)
			return callErr
		})
		if err != nil {
			return model.PoolInfo{}, &PoolReadError{Pool: pool, Method: "liquidity", Err: err}
		}
		depth, err := asBigInt(values[0])
		if err != nil {
			return model.PoolInfo{}, &PoolReadError{Pool: pool, Method: "liquidity", Err: err}
		}

		l.logger.Debug("pool candidate",
			zap.String("pool", pool.Hex()),
			zap.Uint32("fee", fee),
			zap.String("liquidity", depth.String()),
		)
		if !matched || depth.Cmp(bestDepth) > 0 {
			best = model.PoolInfo{Address: pool, Fee: fee}
			bestDepth = depth
			matched = true
		}
	}
	if !matched {
		return model.PoolInfo{}, l.notFound(tokenA, tokenB)
	}
	l.found(best.Address, best.Fee)
	return best, nil
}

func (l *Locator) getPool(ctx context.Context, tokenA, tokenB common.Address, fee uint32) (common.Address, error) {
	factoryABI, err := FactoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}

	var pool common.Address
	err = l.cfg.Retry.do(ctx, func(ctx context.Context) error {
		values, err := callMethod(ctx, l.caller, l.cfg.Factory, factoryABI, "getPool", tokenA, tokenB, newUint(uint64(fee)))
		l.metrics.ObserveCall("getPool", err)
		if err != nil {
			return err
		}
		pool, err = asAddress(values[0])
		return err
	})
	if err != nil {
		return common.Address{}, fmt.Errorf("get pool at fee %d: %w", fee, err)
	}
	return pool, nil
}

func (l *Locator) found(pool common.Address, fee uint32) {
	l.metrics.ObservePool(strconv.FormatUint(uint64(fee), 10))
	l.logger.Info("pool located",
		zap.String("pool", pool.Hex()),
		zap.Uint32("fee", fee),
		zap.String("policy", l.cfg.Policy),
	)
}

func (l *Locator) notFound(tokenA, tokenB common.Address) error {
	tiers := make([]uint32, len(l.cfg.FeeTiers))
	copy(tiers, l.cfg.FeeTiers)
	return &NoPoolFoundError{TokenA: tokenA, TokenB: tokenB, FeeTiers: tiers}
}
