package store

import (
	"context"
	"regexp"
	"testing"

	"bida-banking-workers/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	repo, counter, err := New(ctx, config.BankingConfig{Store: config.StoreMemory}, Backends{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, repo)
	assert.NotNil(t, counter)

	_, client := newMiniRedis(t)
	repo, counter, err = New(ctx, config.BankingConfig{Store: config.StoreRedis}, Backends{Redis: client})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, repo)
	assert.IsType(t, &RedisCounter{}, counter)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS bank_states")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS bank_sequences")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	repo, counter, err = New(ctx, config.BankingConfig{Store: config.StorePostgres}, Backends{Postgres: db})
	require.NoError(t, err)
	assert.IsType(t, &PostgresStore{}, repo)
	assert.IsType(t, &PostgresCounter{}, counter)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS bank_states")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS bank_sequences")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	_, counter, err = New(ctx, config.BankingConfig{Store: config.StorePostgres}, Backends{Postgres: db, Redis: client})
	require.NoError(t, err)
	assert.IsType(t, &RedisCounter{}, counter)

	_, _, err = New(ctx, config.BankingConfig{Store: config.StoreRedis}, Backends{})
	assert.Error(t, err)
	_, _, err = New(ctx, config.BankingConfig{Store: "dynamo"}, Backends{})
	assert.Error(t, err)
}
