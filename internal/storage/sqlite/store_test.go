package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/model"
)

func TestStoreRecordAndList(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	failed := model.MintRecord{
		ChainID:        1001,
		Pool:           "0x3333333333333333333333333333333333333333",
		Token0:         "0x1111111111111111111111111111111111111111",
		Token1:         "0x2222222222222222222222222222222222222222",
		Fee:            500,
		TickSpacing:    10,
		TickLower:      80,
		TickUpper:      120,
		Amount0Desired: "1000",
		Amount1Desired: "2000",
		Amount0Min:     "995",
		Amount1Min:     "1990",
		Recipient:      "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Deadline:       1700000600,
		Status:         model.MintStatusFailed,
		Error:          "approve 0x1111111111111111111111111111111111111111: transaction reverted",
		CreatedAt:      "2023-11-14T22:13:20Z",
	}
	confirmed := failed
	confirmed.Error = ""
	confirmed.Status = model.MintStatusConfirmed
	confirmed.TxHash = "0xbbb"
	confirmed.BlockNumber = 100
	confirmed.GasUsed = 450000
	confirmed.Position = &model.MintedPosition{TokenID: "7", Liquidity: "123", Amount0: "1000", Amount1: "2000"}

	for _, r := range []model.MintRecord{failed, confirmed} {
		if err := store.RecordMint(ctx, r); err != nil {
			t.Fatalf("record mint: %v", err)
		}
	}

	got, err := store.ListMints(ctx, 0)
	if err != nil {
		t.Fatalf("list mints: %v", err)
	}
	want := []model.MintRecord{confirmed, failed}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected records:\n got %+v\nwant %+v", got, want)
	}

	got, err = store.ListMints(ctx, 1)
	if err != nil {
		t.Fatalf("list mints: %v", err)
	}
	if len(got) != 1 || got[0].Status != model.MintStatusConfirmed {
		t.Fatalf("limit not applied: %+v", got)
	}

	var pools int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pools`).Scan(&pools); err != nil {
		t.Fatalf("count pools: %v", err)
	}
	if pools != 1 {
		t.Fatalf("expected one pool row, got %d", pools)
	}
}
