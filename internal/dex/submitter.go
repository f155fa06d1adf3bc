package dex

import (
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
)

// DefaultMintGasLimit is the fixed gas limit sent with mint.
const DefaultMintGasLimit uint64 = 1_000_000

// SubmitterConfig configures transaction submission.
type SubmitterConfig struct {
	PositionManager common.Address
	MintGasLimit    uint64
	// ReceiptTimeout bounds each wait for inclusion. Zero waits until ctx is done.
	ReceiptTimeout time.Duration
	// SkipSufficientAllowance skips an approval when the current allowance already covers it.
	SkipSufficientAllowance bool
}

// Submitter sends the approve and mint transactions of a liquidity add.
type Submitter struct {
	tx      Transactor
	caller  ContractCaller
	cfg     SubmitterConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewSubmitter creates a Submitter. caller is only used when SkipSufficientAllowance is set.
func NewSubmitter(tx Transactor, caller ContractCaller, cfg SubmitterConfig, m *metrics.Metrics, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MintGasLimit == 0 {
		cfg.MintGasLimit = DefaultMintGasLimit
	}
	return &Submitter{tx: tx, caller: caller, cfg: cfg, metrics: m, logger: logger}
}

// Approve lets the position manager spend amount of token and waits for the approval
// to be mined successfully.
func (s *Submitter) Approve(ctx context.Context, token common.Address, amount *big.Int) error {
	if amount == nil {
		amount = big0()
	}

	if s.cfg.SkipSufficientAllowance && s.caller != nil {
		current, err := Allowance(ctx, s.caller, token, s.tx.Address(), s.cfg.PositionManager)
		if err != nil {
			return &ApprovalError{Token: token, Err: fmt.Errorf("read allowance: %w", err)}
		}
		if current.Cmp(amount) >= 0 {
			s.logger.Info("allowance sufficient, skipping approve",
				zap.String("token", token.Hex()),
				zap.String("allowance", current.String()),
			)
			return nil
		}
	}

	parsed, err := ERC20ABI()
	if err != nil {
		return &ApprovalError{Token: token, Err: fmt.Errorf("parse erc20 abi: %w", err)}
	}
	data, err := parsed.Pack("approve", s.cfg.PositionManager, amount)
	if err != nil {
		return &ApprovalError{Token: token, Err: fmt.Errorf("pack approve: %w", err)}
	}

	receipt, hash, err := s.sendAndWait(ctx, metrics.TxApprove, token, data, 0)
	if err != nil {
		return &ApprovalError{Token: token, TxHash: hash, Err: err}
	}

	s.logger.Info("approve confirmed",
		zap.String("token", token.Hex()),
		zap.String("spender", s.cfg.PositionManager.Hex()),
		zap.String("amount", amount.String()),
		zap.String("tx", hash.Hex()),
		zap.Uint64("block", blockNumber(receipt)),
	)
	return nil
}

// AddLiquidity approves token0, then token1, then mints the position. It stops at the first
// failed step, so a failed approval never reaches mint. A receipt is returned only for a
// successful mint.
func (s *Submitter) AddLiquidity(ctx context.Context, params model.AddLiquidityParams) (*types.Receipt, error) {
	if err := s.Approve(ctx, params.Token0.Address, params.Amount0Desired); err != nil {
		return nil, err
	}
	if err := s.Approve(ctx, params.Token1.Address, params.Amount1Desired); err != nil {
		return nil, err
	}

	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, &MintError{Err: fmt.Errorf("parse position manager abi: %w", err)}
	}
	data, err := parsed.Pack("mint", params.ABI())
	if err != nil {
		return nil, &MintError{Err: fmt.Errorf("pack mint: %w", err)}
	}

	receipt, hash, err := s.sendAndWait(ctx, metrics.TxMint, s.cfg.PositionManager, data, s.cfg.MintGasLimit)
	if err != nil {
		return receipt, &MintError{TxHash: hash, Err: err}
	}

	s.logger.Info("mint confirmed",
		zap.String("tx", hash.Hex()),
		zap.Uint64("block", blockNumber(receipt)),
		zap.Uint64("gas_used", receipt.GasUsed),
		zap.Int32("tick_lower", params.TickLower),
		zap.Int32("tick_upper", params.TickUpper),
	)
	return receipt, nil
}

// sendAndWait broadcasts a transaction and waits for its receipt. A reverted receipt is
// returned together with ErrReverted.
func (s *Submitter) sendAndWait(ctx context.Context, kind string, to common.Address, data []byte, gasLimit uint64) (*types.Receipt, common.Hash, error) {
	tx, err := s.tx.SendTx(ctx, to, data, gasLimit)
	if err != nil {
		s.metrics.ObserveTx(kind, metrics.StatusFailed, 0)
		return nil, common.Hash{}, err
	}
	hash := tx.Hash()
	s.logger.Info("transaction sent", zap.String("kind", kind), zap.String("tx", hash.Hex()))

	waitCtx := ctx
	if s.cfg.ReceiptTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.cfg.ReceiptTimeout)
		defer cancel()
	}

	start := time.Now()
	receipt, err := s.tx.WaitMined(waitCtx, tx)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveTx(kind, metrics.StatusFailed, 0)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, hash, fmt.Errorf("no receipt after %s: %w", s.cfg.ReceiptTimeout, err)
		}
		return nil, hash, fmt.Errorf("wait mined: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		s.metrics.ObserveTx(kind, metrics.StatusReverted, elapsed)
		return receipt, hash, ErrReverted
	}
	s.metrics.ObserveTx(kind, metrics.StatusConfirmed, elapsed)
	return receipt, hash, nil
}

// DecodeMintedPosition extracts the IncreaseLiquidity event emitted by the position manager.
func (s *Submitter) DecodeMintedPosition(receipt *types.Receipt) (*model.MintedPosition, error) {
	return DecodeMintedPosition(receipt, s.cfg.PositionManager)
}

// DecodeMintedPosition finds the IncreaseLiquidity log emitted by positionManager in receipt.
func DecodeMintedPosition(receipt *types.Receipt, positionManager common.Address) (*model.MintedPosition, error) {
	if receipt == nil {
		return nil, fmt.Errorf("receipt is nil")
	}
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse position manager abi: %w", err)
	}
	event := parsed.Events["IncreaseLiquidity"]

	for _, lg := range receipt.Logs {
		if lg == nil || lg.Address != positionManager || len(lg.Topics) < 2 || lg.Topics[0] != event.ID {
			continue
		}
		values, err := event.Inputs.NonIndexed().Unpack(lg.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack IncreaseLiquidity: %w", err)
		}
		if len(values) != 3 {
			return nil, fmt.Errorf("unpack IncreaseLiquidity: got %d values", len(values))
		}
		liquidity, err := asBigInt(values[0])
		if err != nil {
			return nil, fmt.Errorf("liquidity: %w", err)
		}
		amount0, err := asBigInt(values[1])
		if err != nil {
			return nil, fmt.Errorf("amount0: %w", err)
		}
		amount1, err := asBigInt(values[2])
		if err != nil {
			return nil, fmt.Errorf("amount1: %w", err)
		}
		return &model.MintedPosition{
			TokenID:   new(big.Int).SetBytes(lg.Topics[1].Bytes()).String(),
			Liquidity: liquidity.String(),
			Amount0:   amount0.String(),
			Amount1:   amount1.String(),
		}, nil
	}
	return nil, fmt.Errorf("no IncreaseLiquidity event in tx %s", receipt.TxHash.Hex())
}

func blockNumber(receipt *types.Receipt) uint64 {
	if receipt == nil || receipt.BlockNumber == nil {
		return 0
	}
	return receipt.BlockNumber.Uint64()
}
