package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"bida-banking-workers/internal/bank"
	apperrors "bida-banking-workers/internal/common/errors"

	"github.com/lib/pq"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS bank_states (
	investor_id TEXT PRIMARY KEY,
	state       JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const sequenceSchemaSQL = `CREATE TABLE IF NOT EXISTS bank_sequences (
	name  TEXT PRIMARY KEY,
	value BIGINT NOT NULL
)`

const nextSequenceSQL = `INSERT INTO bank_sequences (name, value) VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET value = bank_sequences.value + 1
RETURNING value`

const (
	selectStateSQL     = `SELECT state FROM bank_states WHERE investor_id = $1`
	selectForUpdateSQL = `SELECT state FROM bank_states WHERE investor_id = $1 FOR UPDATE`
	insertStateSQL     = `INSERT INTO bank_states (investor_id, state, created_at, updated_at) VALUES ($1, $2, $3, $4) ON CONFLICT (investor_id) DO NOTHING`
	updateStateSQL     = `UPDATE bank_states SET state = $2, updated_at = $3 WHERE investor_id = $1`
)

// PostgresStore keeps one JSONB row per investor and serialises updates with
// a row lock.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the bank_states and bank_sequences tables if needed.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{schemaSQL, sequenceSchemaSQL} {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.NewBankStoreFailedError("ensure schema", err)
		}
	}
	return nil
}

// PostgresCounter implements bank.Counter with one row per sequence name, so
// reference numbers survive restarts. Concurrent callers serialise on the row.
type PostgresCounter struct {
	db *sql.DB
}

func NewPostgresCounter(db *sql.DB) *PostgresCounter {
	return &PostgresCounter{db: db}
}

func (c *PostgresCounter) Next(ctx context.Context, name string) (int64, error) {
	var n int64
	if err := c.db.QueryRowContext(ctx, nextSequenceSQL, name).Scan(&n); err != nil {
		return 0, apperrors.NewBankStoreFailedError("next sequence "+name, err)
	}
	return n, nil
}

func (p *PostgresStore) Get(ctx context.Context, investorID string) (*bank.BankState, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, selectStateSQL, investorID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewBankStateNotFoundError(investorID)
	}
	if err != nil {
		return nil, storeError("get", investorID, err)
	}
	return decodeState(data)
}

func (p *PostgresStore) Create(ctx context.Context, state *bank.BankState) (*bank.BankState, bool, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, false, apperrors.NewBankStoreFailedError("encode", err)
	}

	res, err := p.db.ExecContext(ctx, insertStateSQL, state.InvestorID, string(data), state.CreatedAt, state.UpdatedAt)
	if err != nil {
		return nil, false, storeError("create", state.InvestorID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, apperrors.NewBankStoreFailedError("create", err)
	}
	if n == 0 {
		existing, err := p.Get(ctx, state.InvestorID)
		return existing, false, err
	}
	return state.Clone(), true, nil
}

func (p *PostgresStore) Update(ctx context.Context, investorID string, fn bank.UpdateFunc) (*bank.BankState, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError("begin", investorID, err)
	}
	defer func() { _ = tx.Rollback() }()

	var data []byte
	err = tx.QueryRowContext(ctx, selectForUpdateSQL, investorID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewBankStateNotFoundError(investorID)
	}
	if err != nil {
		return nil, storeError("lock", investorID, err)
	}

	state, err := decodeState(data)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}

	out, err := json.Marshal(state)
	if err != nil {
		return nil, apperrors.NewBankStoreFailedError("encode", err)
	}

	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx, updateStateSQL, investorID, string(out), updatedAt); err != nil {
		return nil, storeError("update", investorID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeError("commit", investorID, err)
	}
	return state, nil
}

// storeError maps serialization and deadlock failures to a conflict so the
// caller retries the whole operation.
func storeError(op, investorID string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return apperrors.NewBankStoreConflictError(investorID, 1)
		}
	}
	return apperrors.NewBankStoreFailedError(op, err)
}
