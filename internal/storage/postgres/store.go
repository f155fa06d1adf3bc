package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	chain_id BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	token0 TEXT NOT NULL,
	token1 TEXT NOT NULL,
	fee INTEGER NOT NULL,
	tick_spacing INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, pool_address)
);

CREATE TABLE IF NOT EXISTS mints (
	id BIGSERIAL PRIMARY KEY,
	chain_id BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	token0 TEXT NOT NULL,
	token1 TEXT NOT NULL,
	fee INTEGER NOT NULL,
	tick_spacing INTEGER NOT NULL,
	tick_lower INTEGER NOT NULL,
	tick_upper INTEGER NOT NULL,
	amount0_desired NUMERIC NOT NULL,
	amount1_desired NUMERIC NOT NULL,
	amount0_min NUMERIC NOT NULL,
	amount1_min NUMERIC NOT NULL,
	recipient TEXT NOT NULL,
	deadline BIGINT NOT NULL,
	tx_hash TEXT,
	block_number BIGINT,
	gas_used BIGINT,
	status TEXT NOT NULL,
	token_id NUMERIC,
	liquidity NUMERIC,
	amount0 NUMERIC,
	amount1 NUMERIC,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_mints_pool ON mints (chain_id, pool_address);
`

// Store provides Postgres persistence for the mint journal.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// EnsureSchema creates the journal tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// RecordMint upserts the pool row and inserts the mint in a single batch.
func (s *Store) RecordMint(ctx context.Context, record model.MintRecord) error {
	pool := record.PoolRecord()
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO pools (
			chain_id, pool_address, token0, token1, fee, tick_spacing, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (chain_id, pool_address)
		DO UPDATE SET
			token0 = EXCLUDED.token0,
			token1 = EXCLUDED.token1,
			fee = EXCLUDED.fee,
			tick_spacing = EXCLUDED.tick_spacing,
			updated_at = now()
	`,
		int64(pool.ChainID),
		pool.Address,
		pool.Token0,
		pool.Token1,
		int64(pool.Fee),
		pool.TickSpacing,
	)

	var tokenID, liquidity, amount0, amount1 *string
	if p := record.Position; p != nil {
		tokenID, liquidity, amount0, amount1 = &p.TokenID, &p.Liquidity, &p.Amount0, &p.Amount1
	}

	batch.Queue(`
		INSERT INTO mints (
			chain_id, pool_address, token0, token1, fee, tick_spacing, tick_lower, tick_upper,
			amount0_desired, amount1_desired, amount0_min, amount1_min, recipient, deadline,
			tx_hash, block_number, gas_used, status, token_id, liquidity, amount0, amount1,
			error_message, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
	`,
		int64(record.ChainID),
		record.Pool,
		record.Token0,
		record.Token1,
		int64(record.Fee),
		record.TickSpacing,
		record.TickLower,
		record.TickUpper,
		record.Amount0Desired,
		record.Amount1Desired,
		record.Amount0Min,
		record.Amount1Min,
		record.Recipient,
		int64(record.Deadline),
		optional(record.TxHash),
		optionalInt(record.BlockNumber),
		optionalInt(record.GasUsed),
		record.Status,
		tokenID,
		liquidity,
		amount0,
		amount1,
		optional(record.Error),
		record.CreatedAt,
	)

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("record mint: %w", err)
		}
	}
	return nil
}

// ListMints returns up to limit mints, newest first. A limit of zero or less returns all.
func (s *Store) ListMints(ctx context.Context, limit int) ([]model.MintRecord, error) {
	query := `
		SELECT chain_id, pool_address, token0, token1, fee, tick_spacing, tick_lower, tick_upper,
			amount0_desired::text, amount1_desired::text, amount0_min::text, amount1_min::text,
			recipient, deadline, tx_hash, block_number, gas_used, status,
			token_id::text, liquidity::text, amount0::text, amount1::text,
			error_message, to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		FROM mints
		ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.MintRecord
	for rows.Next() {
		var (
			r                              model.MintRecord
			chainID, deadline              int64
			fee                            int64
			txHash, errMsg                 *string
			blockNumber, gasUsed           *int64
			tokenID, liquidity, amt0, amt1 *string
		)
		if err := rows.Scan(
			&chainID, &r.Pool, &r.Token0, &r.Token1, &fee, &r.TickSpacing, &r.TickLower, &r.TickUpper,
			&r.Amount0Desired, &r.Amount1Desired, &r.Amount0Min, &r.Amount1Min,
			&r.Recipient, &deadline, &txHash, &blockNumber, &gasUsed, &r.Status,
			&tokenID, &liquidity, &amt0, &amt1,
			&errMsg, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		r.ChainID = uint64(chainID)
		r.Fee = uint32(fee)
		r.Deadline = uint64(deadline)
		r.TxHash = deref(txHash)
		r.Error = deref(errMsg)
		if blockNumber != nil {
			r.BlockNumber = uint64(*blockNumber)
		}
		if gasUsed != nil {
			r.GasUsed = uint64(*gasUsed)
		}
		if tokenID != nil {
			r.Position = &model.MintedPosition{
				TokenID:   *tokenID,
				Liquidity: deref(liquidity),
				Amount0:   deref(amt0),
				Amount1:   deref(amt1),
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func optionalInt(v uint64) *int64 {
	if v == 0 {
		return nil
	}
	n := int64(v)
	return &n
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
