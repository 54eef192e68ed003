package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"spoolamm/internal/model"
)

// Store provides Postgres persistence for the replay journal.
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

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	pool_address   TEXT PRIMARY KEY,
	mint_a         TEXT NOT NULL,
	mint_b         TEXT NOT NULL,
	vault_a        TEXT NOT NULL,
	vault_b        TEXT NOT NULL,
	share_mint     TEXT NOT NULL,
	locked_shares  TEXT NOT NULL,
	authority_bump SMALLINT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS operation_results (
	seq          BIGINT PRIMARY KEY,
	kind         TEXT NOT NULL,
	pool_address TEXT,
	owner        TEXT,
	payload      JSONB NOT NULL,
	applied_at   TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS operation_failures (
	id         BIGSERIAL PRIMARY KEY,
	seq        BIGINT NOT NULL,
	kind       TEXT NOT NULL,
	owner      TEXT,
	error_kind TEXT NOT NULL,
	error      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS operation_failures_seq_key
	ON operation_failures (seq, kind, error) WHERE seq > 0;
CREATE TABLE IF NOT EXISTS pool_snapshots (
	pool_address TEXT NOT NULL,
	seq          BIGINT NOT NULL,
	reserve_a    NUMERIC(20,0) NOT NULL,
	reserve_b    NUMERIC(20,0) NOT NULL,
	share_supply NUMERIC(20,0) NOT NULL,
	k            NUMERIC(40,0) NOT NULL,
	taken_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool_address, seq)
);
CREATE TABLE IF NOT EXISTS replay_state (
	name       TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the journal tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutPools inserts pool records. Pools are immutable, so existing rows are kept.
func (s *Store) PutPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, mint_a, mint_b, vault_a, vault_b, share_mint, locked_shares, authority_bump
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (pool_address) DO NOTHING
		`,
			pool.Address.String(),
			pool.MintA.String(),
			pool.MintB.String(),
			pool.VaultA.String(),
			pool.VaultB.String(),
			pool.ShareMint.String(),
			pool.LockedShares.String(),
			int16(pool.AuthorityBump),
		)
	}
	return s.sendBatch(ctx, batch)
}

// PutResults inserts applied operations and the pool snapshots they carry.
// Rows already journaled for a seq are left untouched so a resumed run can
// replay a partially written batch.
func (s *Store) PutResults(ctx context.Context, results []model.OperationResult) error {
	if len(results) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, result := range results {
		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal result %d: %w", result.Seq, err)
		}
		batch.Queue(`
			INSERT INTO operation_results (seq, kind, pool_address, owner, payload, applied_at)
			VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
			ON CONFLICT (seq) DO NOTHING
		`,
			int64(result.Seq),
			result.Kind,
			result.PoolAddress,
			result.Owner,
			payload,
			appliedAt(result.AppliedAt),
		)

		if snap := result.Snapshot; snap != nil {
			batch.Queue(`
				INSERT INTO pool_snapshots (pool_address, seq, reserve_a, reserve_b, share_supply, k, taken_at)
				VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7)
				ON CONFLICT (pool_address, seq) DO NOTHING
			`,
				snap.PoolAddress,
				int64(snap.Seq),
				strconv.FormatUint(snap.ReserveA, 10),
				strconv.FormatUint(snap.ReserveB, 10),
				strconv.FormatUint(snap.ShareSupply, 10),
				snap.K,
				snap.TakenAt,
			)
		}
	}
	return s.sendBatch(ctx, batch)
}

// PutFailures inserts rejected operations, skipping ones already stored.
// Unparsable lines carry seq 0 and are always inserted.
func (s *Store) PutFailures(ctx context.Context, failures []model.OperationError) error {
	if len(failures) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, f := range failures {
		batch.Queue(`
			INSERT INTO operation_failures (seq, kind, owner, error_kind, error)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5)
			ON CONFLICT (seq, kind, error) WHERE seq > 0 DO NOTHING
		`,
			int64(f.Seq),
			f.Kind,
			f.Owner,
			f.ErrorKind,
			f.Error,
		)
	}
	return s.sendBatch(ctx, batch)
}

// LoadState returns the stored payload for a name.
func (s *Store) LoadState(ctx context.Context, name string) ([]byte, bool, error) {
	if name == "" {
		return nil, false, fmt.Errorf("state name required")
	}
	var payload []byte
	row := s.pool.QueryRow(ctx, `SELECT payload FROM replay_state WHERE name=$1`, name)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

// SaveState upserts the payload for a name.
func (s *Store) SaveState(ctx context.Context, name string, payload []byte) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_state (name, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = now()
	`, name, payload)
	return err
}

func appliedAt(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Now().UTC()
	}
	return ts
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
