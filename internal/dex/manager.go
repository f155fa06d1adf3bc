package dex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/metrics"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/model"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/units"
)

// DefaultDeadline is how long a mint stays valid after it is built.
const DefaultDeadline = 10 * time.Minute

// Journal persists mint attempts.
type Journal interface {
	RecordMint(ctx context.Context, record model.MintRecord) error
}

// Request describes a liquidity add. Token order is free; it is normalized before minting.
// Amounts are human-readable decimals in each token's units. When Liquidity is set the
// amounts are derived from it instead.
type Request struct {
	TokenA       common.Address
	TokenB       common.Address
	AmountA      string
	AmountB      string
	Liquidity    *big.Int
	SlippageBps  uint32
	Recipient    common.Address
	Deadline     time.Duration
	CheckBalance bool
}

// Plan is everything needed for a mint, computed without sending transactions.
type Plan struct {
	Pool   model.PoolInfo           `json:"pool"`
	State  model.PoolData           `json:"state"`
	Params model.AddLiquidityParams `json:"-"`
}

// Manager runs the locate, read, range, approve and mint workflow.
type Manager struct {
	chainID   uint64
	caller    ContractCaller
	locator   *Locator
	reader    *PoolReader
	submitter *Submitter
	journal   Journal
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewManager wires the workflow. journal may be nil.
func NewManager(chainID uint64, caller ContractCaller, locator *Locator, reader *PoolReader, submitter *Submitter, journal Journal, m *metrics.Metrics, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		chainID:   chainID,
		caller:    caller,
		locator:   locator,
		reader:    reader,
		submitter: submitter,
		journal:   journal,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Plan locates the pool, reads its state, computes the tick range and builds mint params.
func (m *Manager) Plan(ctx context.Context, req Request) (Plan, error) {
	if req.TokenA == req.TokenB {
		return Plan{}, fmt.Errorf("tokens must differ")
	}
	if req.Deadline <= 0 {
		req.Deadline = DefaultDeadline
	}

	pool, err := m.locator.LocatePool(ctx, req.TokenA, req.TokenB)
	if err != nil {
		return Plan{}, err
	}
	state, err := m.reader.ReadPoolState(ctx, pool.Address)
	if err != nil {
		return Plan{}, err
	}
	lower, upper, err := ComputeTickRange(state.Tick, state.TickSpacing)
	if err != nil {
		return Plan{}, err
	}
	if err := CheckTickRange(lower, upper); err != nil {
		return Plan{}, err
	}

	// Decimals only matter when amounts are given in token units.
	required := req.Liquidity == nil
	tokenA, err := m.resolveToken(ctx, req.TokenA, required)
	if err != nil {
		return Plan{}, fmt.Errorf("resolve token a: %w", err)
	}
	tokenB, err := m.resolveToken(ctx, req.TokenB, required)
	if err != nil {
		return Plan{}, fmt.Errorf("resolve token b: %w", err)
	}

	token0, token1 := tokenA, tokenB
	text0, text1 := req.AmountA, req.AmountB
	if bytes.Compare(token0.Address.Bytes(), token1.Address.Bytes()) > 0 {
		token0, token1 = token1, token0
		text0, text1 = text1, text0
	}

	var amount0, amount1 *big.Int
	if req.Liquidity != nil {
		amount0, amount1, err = AmountsForLiquidity(state.SqrtPriceX96, lower, upper, req.Liquidity)
		if err != nil {
			return Plan{}, fmt.Errorf("amounts for liquidity: %w", err)
		}
	} else {
		if amount0, err = units.ParseUnits(text0, token0.Decimals); err != nil {
			return Plan{}, fmt.Errorf("amount of %s: %w", token0.Label(), err)
		}
		if amount1, err = units.ParseUnits(text1, token1.Decimals); err != nil {
			return Plan{}, fmt.Errorf("amount of %s: %w", token1.Label(), err)
		}
	}

	min0, err := ApplySlippage(amount0, req.SlippageBps)
	if err != nil {
		return Plan{}, err
	}
	min1, err := ApplySlippage(amount1, req.SlippageBps)
	if err != nil {
		return Plan{}, err
	}

	recipient := req.Recipient
	if recipient == (common.Address{}) {
		recipient = m.submitter.tx.Address()
	}

	params := model.AddLiquidityParams{
		Token0:         token0,
		Token1:         token1,
		Fee:            pool.Fee,
		TickLower:      lower,
		TickUpper:      upper,
		Amount0Desired: amount0,
		Amount1Desired: amount1,
		Amount0Min:     min0,
		Amount1Min:     min1,
		Recipient:      recipient,
		Deadline:       big.NewInt(m.now().Add(req.Deadline).Unix()),
	}

	m.logger.Info("mint planned",
		zap.String("pool", pool.Address.Hex()),
		zap.Uint32("fee", pool.Fee),
		zap.Int32("tick", state.Tick),
		zap.Int32("tick_lower", lower),
		zap.Int32("tick_upper", upper),
		zap.String("token0", token0.Label()),
		zap.String("amount0", units.FormatUnits(amount0, token0.Decimals)),
		zap.String("token1", token1.Label()),
		zap.String("amount1", units.FormatUnits(amount1, token1.Decimals)),
		zap.Uint32("slippage_bps", req.SlippageBps),
	)

	return Plan{Pool: pool, State: state, Params: params}, nil
}

// AddLiquidity plans and submits a mint, then records the attempt in the journal.
// Failures after planning, including a failed balance check, are journaled with
// their status before being returned.
func (m *Manager) AddLiquidity(ctx context.Context, req Request) (model.MintRecord, error) {
	plan, err := m.Plan(ctx, req)
	if err != nil {
		return model.MintRecord{}, err
	}
	record := m.newRecord(plan)

	if req.CheckBalance {
		if err := m.checkBalances(ctx, plan.Params); err != nil {
			return m.fail(ctx, record, model.MintStatusFailed, err)
		}
	}

	receipt, err := m.submitter.AddLiquidity(ctx, plan.Params)
	applyReceipt(&record, receipt)
	if err != nil {
		status := model.MintStatusFailed
		var mintErr *MintError
		if errors.As(err, &mintErr) {
			if mintErr.TxHash != (common.Hash{}) {
				record.TxHash = mintErr.TxHash.Hex()
			}
			if errors.Is(mintErr.Err, ErrReverted) {
				status = model.MintStatusReverted
			}
		}
		return m.fail(ctx, record, status, err)
	}

	record.Status = model.MintStatusConfirmed
	position, err := m.submitter.DecodeMintedPosition(receipt)
	if err != nil {
		m.logger.Warn("minted position not decoded", zap.String("tx", record.TxHash), zap.Error(err))
	} else {
		record.Position = position
		if liq, ok := new(big.Float).SetString(position.Liquidity); ok {
			f, _ := liq.Float64()
			m.metrics.SetPositionLiquidity(f)
		}
		m.logger.Info("position minted",
			zap.String("token_id", position.TokenID),
			zap.String("liquidity", position.Liquidity),
			zap.String("amount0", position.Amount0),
			zap.String("amount1", position.Amount1),
		)
	}

	if err := m.record(ctx, record); err != nil {
		return record, err
	}
	return record, nil
}

func (m *Manager) fail(ctx context.Context, record model.MintRecord, status string, err error) (model.MintRecord, error) {
	record.Status = status
	record.Error = err.Error()
	if jerr := m.record(ctx, record); jerr != nil {
		return record, errors.Join(err, jerr)
	}
	return record, err
}

// resolveToken reads token metadata. When it is not required a failed read falls back
// to a bare token so that non-standard ERC20s can still be minted by liquidity.
func (m *Manager) resolveToken(ctx context.Context, address common.Address, required bool) (model.Token, error) {
	token, err := FetchToken(ctx, m.caller, m.chainID, address, m.logger)
	if err == nil {
		return token, nil
	}
	if required {
		return model.Token{}, err
	}
	m.logger.Warn("token metadata unavailable", zap.String("token", address.Hex()), zap.Error(err))
	return model.NewToken(m.chainID, address, 0, "", ""), nil
}

func (m *Manager) checkBalances(ctx context.Context, params model.AddLiquidityParams) error {
	owner := m.submitter.tx.Address()
	for _, item := range []struct {
		token  common.Address
		amount *big.Int
	}{
		{params.Token0.Address, params.Amount0Desired},
		{params.Token1.Address, params.Amount1Desired},
	} {
		balance, err := BalanceOf(ctx, m.caller, item.token, owner)
		if err != nil {
			return fmt.Errorf("balance of %s: %w", item.token.Hex(), err)
		}
		if balance.Cmp(item.amount) < 0 {
			return &InsufficientBalanceError{Token: item.token, Balance: balance, Required: item.amount}
		}
	}
	return nil
}

func (m *Manager) newRecord(plan Plan) model.MintRecord {
	p := plan.Params
	return model.MintRecord{
		ChainID:        m.chainID,
		Pool:           plan.Pool.Address.Hex(),
		Token0:         p.Token0.Address.Hex(),
		Token1:         p.Token1.Address.Hex(),
		Fee:            p.Fee,
		TickSpacing:    plan.State.TickSpacing,
		TickLower:      p.TickLower,
		TickUpper:      p.TickUpper,
		Amount0Desired: p.Amount0Desired.String(),
		Amount1Desired: p.Amount1Desired.String(),
		Amount0Min:     p.Amount0Min.String(),
		Amount1Min:     p.Amount1Min.String(),
		Recipient:      p.Recipient.Hex(),
		Deadline:       p.Deadline.Uint64(),
		CreatedAt:      m.now().UTC().Format(time.RFC3339),
	}
}

func (m *Manager) record(ctx context.Context, record model.MintRecord) error {
	if m.journal == nil {
		return nil
	}
	if err := m.journal.RecordMint(ctx, record); err != nil {
		return fmt.Errorf("record mint: %w", err)
	}
	return nil
}

func applyReceipt(record *model.MintRecord, receipt *types.Receipt) {
	if receipt == nil {
		return
	}
	record.TxHash = receipt.TxHash.Hex()
	record.BlockNumber = blockNumber(receipt)
	record.GasUsed = receipt.GasUsed
}
