package dex

import (
	"context"
	"math/big"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/model"
)

func TestFetchToken(t *testing.T) {
	caller := newFakeCaller()
	stubToken(t, caller, testTokenLo, 18, "WKAIA")

	got, err := FetchToken(context.Background(), caller, 8217, testTokenLo, zap.NewNop())
	if err != nil {
		t.Fatalf("fetch token: %v", err)
	}
	want := model.NewToken(8217, testTokenLo, 18, "WKAIA", "WKAIA token")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected token: %+v", got)
	}
}

func TestFetchTokenBytes32Symbol(t *testing.T) {
	caller := newFakeCaller()
	erc20 := mustABI(t, ERC20ABI)
	bytes32ABI := mustABI(t, erc20ABIBytes32Instance)
	caller.on(t, testTokenHi, erc20, "decimals", nil, uint8(18))

	var symbol [32]byte
	copy(symbol[:], "MKR")
	caller.on(t, testTokenHi, bytes32ABI, "symbol", nil, symbol)

	got, err := FetchToken(context.Background(), caller, 1001, testTokenHi, zap.NewNop())
	if err != nil {
		t.Fatalf("fetch token: %v", err)
	}
	if got.Symbol != "MKR" {
		t.Fatalf("expected bytes32 symbol fallback, got %q", got.Symbol)
	}
	if got.Name != "" {
		t.Fatalf("expected empty name when the call fails, got %q", got.Name)
	}
	if got.Label() != "MKR" {
		t.Fatalf("unexpected label %q", got.Label())
	}
}

func TestFetchTokenDecimalsRequired(t *testing.T) {
	if _, err := FetchToken(context.Background(), newFakeCaller(), 1001, testTokenLo, nil); err == nil {
		t.Fatalf("expected error when decimals cannot be read")
	}
}

func TestBalanceOf(t *testing.T) {
	caller := newFakeCaller()
	caller.on(t, testTokenLo, mustABI(t, ERC20ABI), "balanceOf", []interface{}{testWallet}, big.NewInt(42))

	got, err := BalanceOf(context.Background(), caller, testTokenLo, testWallet)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if got.Int64() != 42 {
		t.Fatalf("unexpected balance %s", got)
	}
}
