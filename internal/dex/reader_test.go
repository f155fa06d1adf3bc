package dex

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"go.uber.org/zap"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/metrics"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/model"
)

// slowCaller holds every call open for a while and tracks how many overlap.
type slowCaller struct {
	*fakeCaller
	delay time.Duration

	mu       sync.Mutex
	inFlight int
	peak     int
}

func (s *slowCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()

	time.Sleep(s.delay)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return s.fakeCaller.CallContract(ctx, msg, block)
}

func TestReadPoolState(t *testing.T) {
	caller := newFakeCaller()
	price, _ := GetSqrtRatioAtTick(103)
	stubPool(t, caller, testTokenLo, testTokenHi, 500, 103, 10, price)

	reader := NewPoolReader(caller, RetryPolicy{}, nil, zap.NewNop())
	got, err := reader.ReadPoolState(context.Background(), testPool)
	if err != nil {
		t.Fatalf("read pool state: %v", err)
	}

	want := model.PoolData{
		TickSpacing:  10,
		Fee:          500,
		Liquidity:    big.NewInt(1_000_000),
		SqrtPriceX96: price,
		Tick:         103,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestReadPoolStateConcurrent(t *testing.T) {
	inner := newFakeCaller()
	price, _ := GetSqrtRatioAtTick(103)
	stubPool(t, inner, testTokenLo, testTokenHi, 500, 103, 10, price)
	caller := &slowCaller{fakeCaller: inner, delay: 50 * time.Millisecond}

	reader := NewPoolReader(caller, RetryPolicy{}, nil, zap.NewNop())
	if _, err := reader.ReadPoolState(context.Background(), testPool); err != nil {
		t.Fatalf("read pool state: %v", err)
	}
	if len(inner.calls) != 4 {
		t.Fatalf("expected 4 reads, got %d", len(inner.calls))
	}
	if caller.peak < 2 {
		t.Fatalf("reads ran one at a time (peak %d)", caller.peak)
	}
}

func TestReadPoolStateFailure(t *testing.T) {
	caller := newFakeCaller()
	price, _ := GetSqrtRatioAtTick(103)
	stubPool(t, caller, testTokenLo, testTokenHi, 500, 103, 10, price)
	rpcErr := errors.New("slot0 unavailable")
	caller.fail(t, testPool, mustABI(t, PoolABI), "slot0", nil, rpcErr)

	m := metrics.New()
	reader := NewPoolReader(caller, RetryPolicy{}, m, zap.NewNop())
	got, err := reader.ReadPoolState(context.Background(), testPool)

	var readErr *PoolReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected PoolReadError, got %v", err)
	}
	if readErr.Method != "slot0" || readErr.Pool != testPool {
		t.Fatalf("unexpected error details: %+v", readErr)
	}
	if !errors.Is(err, rpcErr) {
		t.Fatalf("expected wrapped rpc error")
	}
	if !reflect.DeepEqual(got, model.PoolData{}) {
		t.Fatalf("expected no partial data, got %+v", got)
	}
}

func TestReadPoolStateRetries(t *testing.T) {
	caller := newFakeCaller()
	price, _ := GetSqrtRatioAtTick(0)
	stubPool(t, caller, testTokenLo, testTokenHi, 500, 0, 10, price)
	poolABI := mustABI(t, PoolABI)
	caller.fail(t, testPool, poolABI, "fee", nil, errors.New("timeout"))

	reader := NewPoolReader(caller, RetryPolicy{MaxRetries: 2, Backoff: 1}, nil, zap.NewNop())
	if _, err := reader.ReadPoolState(context.Background(), testPool); err == nil {
		t.Fatalf("expected failure")
	}

	data, _ := poolABI.Pack("fee")
	feeCalls := 0
	for _, key := range caller.calls {
		if key == callKey(testPool, data) {
			feeCalls++
		}
	}
	if feeCalls != 3 {
		t.Fatalf("expected 3 fee attempts, got %d", feeCalls)
	}
}

func TestReadPoolTokens(t *testing.T) {
	caller := newFakeCaller()
	poolABI := mustABI(t, PoolABI)
	caller.on(t, testPool, poolABI, "token0", nil, testTokenLo)
	caller.on(t, testPool, poolABI, "token1", nil, testTokenHi)

	reader := NewPoolReader(caller, RetryPolicy{}, nil, zap.NewNop())
	token0, token1, err := reader.ReadPoolTokens(context.Background(), testPool)
	if err != nil {
		t.Fatalf("read tokens: %v", err)
	}
	if token0 != testTokenLo || token1 != testTokenHi {
		t.Fatalf("unexpected tokens %s/%s", token0.Hex(), token1.Hex())
	}
}
