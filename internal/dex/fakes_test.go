package dex

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	testFactory = common.HexToAddress("0x7431A23897ecA6913D5c81666345D39F27d946A4")
	testManager = common.HexToAddress("0x68f762d28CebaD501c090949e4680697e56848fC")
	testWallet  = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testTokenLo = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testTokenHi = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testPool    = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type fakeCaller struct {
	mu        sync.Mutex
	responses map[string][]byte
	errs      map[string]error
	calls     []string
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		responses: make(map[string][]byte),
		errs:      make(map[string]error),
	}
}

func callKey(to common.Address, data []byte) string {
	return to.Hex() + ":" + hex.EncodeToString(data)
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	key := callKey(*msg.To, msg.Data)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if out, ok := f.responses[key]; ok {
		return out, nil
	}
	return nil, fmt.Errorf("unexpected call %s", key)
}

func (f *fakeCaller) on(t *testing.T, to common.Address, parsed abi.ABI, method string, args []interface{}, outputs ...interface{}) {
	t.Helper()
	data, err := parsed.Pack(method, args...)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	out, err := parsed.Methods[method].Outputs.Pack(outputs...)
	if err != nil {
		t.Fatalf("pack %s outputs: %v", method, err)
	}
	f.mu.Lock()
	f.responses[callKey(to, data)] = out
	f.mu.Unlock()
}

func (f *fakeCaller) fail(t *testing.T, to common.Address, parsed abi.ABI, method string, args []interface{}, err error) {
	t.Helper()
	data, packErr := parsed.Pack(method, args...)
	if packErr != nil {
		t.Fatalf("pack %s: %v", method, packErr)
	}
	f.mu.Lock()
	f.errs[callKey(to, data)] = err
	f.mu.Unlock()
}

// callsTo counts calls made to the given address.
func (f *fakeCaller) callsTo(to common.Address) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, key := range f.calls {
		if strings.HasPrefix(key, to.Hex()+":") {
			n++
		}
	}
	return n
}

func (f *fakeCaller) called(t *testing.T, to common.Address, parsed abi.ABI, method string, args ...interface{}) bool {
	t.Helper()
	data, err := parsed.Pack(method, args...)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	key := callKey(to, data)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == key {
			return true
		}
	}
	return false
}

func mustABI(t *testing.T, load func() (abi.ABI, error)) abi.ABI {
	t.Helper()
	parsed, err := load()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	return parsed
}

// stubPool registers a pool at fee with the given state; other tiers return the zero address.
func stubPool(t *testing.T, f *fakeCaller, tokenA, tokenB common.Address, fee uint32, tick, spacing int64, sqrtPrice *big.Int) {
	t.Helper()
	factoryABI := mustABI(t, FactoryABI)
	poolABI := mustABI(t, PoolABI)

	for _, tier := range DefaultFeeTiers {
		pool := common.Address{}
		if tier == fee {
			pool = testPool
		}
		f.on(t, testFactory, factoryABI, "getPool", []interface{}{tokenA, tokenB, big.NewInt(int64(tier))}, pool)
	}

	f.on(t, testPool, poolABI, "tickSpacing", nil, big.NewInt(spacing))
	f.on(t, testPool, poolABI, "fee", nil, big.NewInt(int64(fee)))
	f.on(t, testPool, poolABI, "liquidity", nil, big.NewInt(1_000_000))
	f.on(t, testPool, poolABI, "slot0", nil,
		sqrtPrice, big.NewInt(tick), uint16(0), uint16(1), uint16(1), uint8(0), true)
}

func stubToken(t *testing.T, f *fakeCaller, token common.Address, decimals uint8, symbol string) {
	t.Helper()
	erc20 := mustABI(t, ERC20ABI)
	f.on(t, token, erc20, "decimals", nil, decimals)
	f.on(t, token, erc20, "symbol", nil, symbol)
	f.on(t, token, erc20, "name", nil, symbol+" token")
}

type sentTx struct {
	to       common.Address
	data     []byte
	gasLimit uint64
}

type fakeTransactor struct {
	mu      sync.Mutex
	sent    []sentTx
	sendErr map[common.Address]error
	status  map[common.Address]uint64
	block   map[common.Address]bool
	logs    map[common.Address][]*types.Log
}

func newFakeTransactor() *fakeTransactor {
	return &fakeTransactor{
		sendErr: make(map[common.Address]error),
		status:  make(map[common.Address]uint64),
		block:   make(map[common.Address]bool),
		logs:    make(map[common.Address][]*types.Log),
	}
}

func (f *fakeTransactor) Address() common.Address { return testWallet }

func (f *fakeTransactor) SendTx(_ context.Context, to common.Address, data []byte, gasLimit uint64) (*types.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentTx{to: to, data: data, gasLimit: gasLimit})
	if err := f.sendErr[to]; err != nil {
		return nil, err
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    uint64(len(f.sent)),
		To:       &to,
		Gas:      gasLimit,
		GasPrice: big.NewInt(1),
		Value:    big.NewInt(0),
		Data:     data,
	}), nil
}

func (f *fakeTransactor) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	to := *tx.To()
	f.mu.Lock()
	block := f.block[to]
	status, ok := f.status[to]
	logs := f.logs[to]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if !ok {
		status = types.ReceiptStatusSuccessful
	}
	return &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(100),
		GasUsed:     21000,
		Logs:        logs,
	}, nil
}

func (f *fakeTransactor) sentTo(to common.Address) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, tx := range f.sent {
		if tx.to == to {
			n++
		}
	}
	return n
}

func increaseLiquidityLog(t *testing.T, tokenID, liquidity, amount0, amount1 int64) *types.Log {
	t.Helper()
	event := mustABI(t, PositionManagerABI).Events["IncreaseLiquidity"]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(liquidity), big.NewInt(amount0), big.NewInt(amount1))
	if err != nil {
		t.Fatalf("pack event: %v", err)
	}
	return &types.Log{
		Address: testManager,
		Topics:  []common.Hash{event.ID, common.BigToHash(big.NewInt(tokenID))},
		Data:    data,
	}
}
