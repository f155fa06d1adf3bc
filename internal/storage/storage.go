package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/dex"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/model"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/storage/postgres"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/storage/sqlite"
)

// Journal kinds accepted by Open.
const (
	KindJSONL    = "jsonl"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// History lists recorded mint attempts, newest first.
type History interface {
	ListMints(ctx context.Context, limit int) ([]model.MintRecord, error)
}

// Store is a journal that can also be queried and closed.
type Store interface {
	dex.Journal
	History
	Close() error
}

// Open returns the store for kind. target is a file path for jsonl and sqlite and a DSN for postgres.
func Open(ctx context.Context, kind, target string) (Store, error) {
	if target == "" {
		return nil, fmt.Errorf("%s journal target is required", kind)
	}
	switch strings.ToLower(kind) {
	case KindJSONL, "":
		return NewJsonlJournal(target), nil
	case KindSQLite:
		store, err := sqlite.NewStore(target)
		if err != nil {
			return nil, err
		}
		return store, nil
	case KindPostgres:
		store, err := postgres.NewStore(ctx, target)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown journal kind %q", kind)
	}
}
