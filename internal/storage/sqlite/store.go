// Package sqlite keeps a local mint journal in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/model"
)

// Store implements the mint journal on SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at dbPath and migrates it.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal=WAL&_sync=NORMAL&_foreign_keys=ON", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pools (
		chain_id INTEGER NOT NULL,
		pool_address TEXT NOT NULL,
		token0 TEXT NOT NULL,
		token1 TEXT NOT NULL,
		fee INTEGER NOT NULL,
		tick_spacing INTEGER NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (chain_id, pool_address)
	);

	CREATE TABLE IF NOT EXISTS mints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chain_id INTEGER NOT NULL,
		pool_address TEXT NOT NULL,
		token0 TEXT NOT NULL,
		token1 TEXT NOT NULL,
		fee INTEGER NOT NULL,
		tick_spacing INTEGER NOT NULL,
		tick_lower INTEGER NOT NULL,
		tick_upper INTEGER NOT NULL,
		amount0_desired TEXT NOT NULL,
		amount1_desired TEXT NOT NULL,
		amount0_min TEXT NOT NULL,
		amount1_min TEXT NOT NULL,
		recipient TEXT NOT NULL,
		deadline INTEGER NOT NULL,
		tx_hash TEXT,
		block_number INTEGER,
		gas_used INTEGER,
		status TEXT NOT NULL,
		token_id TEXT,
		liquidity TEXT,
		amount0 TEXT,
		amount1 TEXT,
		error_message TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_mints_pool ON mints(chain_id, pool_address);
	CREATE INDEX IF NOT EXISTS idx_mints_tx ON mints(tx_hash);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordMint upserts the pool row and inserts the mint in one transaction.
func (s *Store) RecordMint(ctx context.Context, record model.MintRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	pool := record.PoolRecord()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pools (chain_id, pool_address, token0, token1, fee, tick_spacing, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (chain_id, pool_address) DO UPDATE SET
			token0 = excluded.token0,
			token1 = excluded.token1,
			fee = excluded.fee,
			tick_spacing = excluded.tick_spacing,
			updated_at = CURRENT_TIMESTAMP
	`, int64(pool.ChainID), pool.Address, pool.Token0, pool.Token1, pool.Fee, pool.TickSpacing); err != nil {
		return fmt.Errorf("upsert pool: %w", err)
	}

	var tokenID, liquidity, amount0, amount1 sql.NullString
	if p := record.Position; p != nil {
		tokenID = nullString(p.TokenID)
		liquidity = nullString(p.Liquidity)
		amount0 = nullString(p.Amount0)
		amount1 = nullString(p.Amount1)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO mints (
			chain_id, pool_address, token0, token1, fee, tick_spacing, tick_lower, tick_upper,
			amount0_desired, amount1_desired, amount0_min, amount1_min, recipient, deadline,
			tx_hash, block_number, gas_used, status, token_id, liquidity, amount0, amount1,
			error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		int64(record.ChainID), record.Pool, record.Token0, record.Token1, record.Fee, record.TickSpacing,
		record.TickLower, record.TickUpper,
		record.Amount0Desired, record.Amount1Desired, record.Amount0Min, record.Amount1Min,
		record.Recipient, int64(record.Deadline),
		nullString(record.TxHash), nullInt64(int64(record.BlockNumber)), nullInt64(int64(record.GasUsed)),
		record.Status, tokenID, liquidity, amount0, amount1,
		nullString(record.Error), record.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert mint: %w", err)
	}

	return tx.Commit()
}

// ListMints returns up to limit mints, newest first. A limit of zero or less returns all.
func (s *Store) ListMints(ctx context.Context, limit int) ([]model.MintRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT chain_id, pool_address, token0, token1, fee, tick_spacing, tick_lower, tick_upper,
			amount0_desired, amount1_desired, amount0_min, amount1_min, recipient, deadline,
			tx_hash, block_number, gas_used, status, token_id, liquidity, amount0, amount1,
			error_message, created_at
		FROM mints
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.MintRecord
	for rows.Next() {
		var (
			r                              model.MintRecord
			chainID, deadline              int64
			txHash, errMsg                 sql.NullString
			tokenID, liquidity, amt0, amt1 sql.NullString
			blockNumber, gasUsed           sql.NullInt64
		)
		if err := rows.Scan(
			&chainID, &r.Pool, &r.Token0, &r.Token1, &r.Fee, &r.TickSpacing, &r.TickLower, &r.TickUpper,
			&r.Amount0Desired, &r.Amount1Desired, &r.Amount0Min, &r.Amount1Min, &r.Recipient, &deadline,
			&txHash, &blockNumber, &gasUsed, &r.Status, &tokenID, &liquidity, &amt0, &amt1,
			&errMsg, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		r.ChainID = uint64(chainID)
		r.Deadline = uint64(deadline)
		r.TxHash = txHash.String
		r.BlockNumber = uint64(blockNumber.Int64)
		r.GasUsed = uint64(gasUsed.Int64)
		r.Error = errMsg.String
		if tokenID.Valid {
			r.Position = &model.MintedPosition{
				TokenID:   tokenID.String,
				Liquidity: liquidity.String,
				Amount0:   amt0.String,
				Amount1:   amt1.String,
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullInt64(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
