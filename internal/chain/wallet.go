package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// TxBackend is the subset of RPC methods a Wallet needs. *Client satisfies it.
type TxBackend interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// Wallet signs and submits transactions from a single key.
type Wallet struct {
	backend TxBackend
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	legacy  bool
}

// NewWallet builds a wallet from a hex private key (with or without 0x prefix).
// When legacy is set, type-0 transactions are sent instead of EIP-1559 ones.
func NewWallet(backend TxBackend, privateKeyHex string, chainID *big.Int, legacy bool) (*Wallet, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is nil")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("chain id must be positive")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Wallet{
		backend: backend,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).Set(chainID),
		legacy:  legacy,
	}, nil
}

// Address returns the sender address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// SendTx signs and broadcasts a call to `to`. A zero gasLimit means the limit is estimated.
func (w *Wallet) SendTx(ctx context.Context, to common.Address, data []byte, gasLimit uint64) (*types.Transaction, error) {
	nonce, err := w.backend.PendingNonceAt(ctx, w.address)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}

	if gasLimit == 0 {
		gasLimit, err = w.backend.EstimateGas(ctx, ethereum.CallMsg{From: w.address, To: &to, Data: data})
		if err != nil {
			return nil, fmt.Errorf("estimate gas: %w", err)
		}
	}

	tx, err := w.buildTx(ctx, nonce, to, data, gasLimit)
	if err != nil {
		return nil, err
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send tx: %w", err)
	}
	return signed, nil
}

// WaitMined blocks until tx is included and returns its receipt, whatever its status.
func (w *Wallet) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return bind.WaitMined(ctx, w.backend, tx)
}

func (w *Wallet) buildTx(ctx context.Context, nonce uint64, to common.Address, data []byte, gasLimit uint64) (*types.Transaction, error) {
	var baseFee *big.Int
	if !w.legacy {
		head, err := w.backend.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("get head: %w", err)
		}
		baseFee = head.BaseFee
	}

	if baseFee == nil {
		gasPrice, err := w.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest gas price: %w", err)
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gasLimit,
			To:       &to,
			Value:    big.NewInt(0),
			Data:     data,
		}), nil
	}

	tip, err := w.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas tip: %w", err)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(baseFee, big.NewInt(2)))

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   w.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     big.NewInt(0),
		Data:      data,
	}), nil
}
