package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"bida-banking-workers/internal/bank"
	apperrors "bida-banking-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func stateJSON(t *testing.T, s *bank.BankState) []byte {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return data
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	s, mock := newMockPostgres(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS bank_states")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS bank_sequences")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCounter(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	c := NewPostgresCounter(db)

	// A fresh process continues from the stored value.
	mock.ExpectQuery(regexp.QuoteMeta(nextSequenceSQL)).
		WithArgs(bank.SeqAccount).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(42)))
	mock.ExpectQuery(regexp.QuoteMeta(nextSequenceSQL)).
		WithArgs(bank.LCSequence(2025)).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta(nextSequenceSQL)).
		WithArgs(bank.SeqEscrow).
		WillReturnError(errors.New("connection reset"))

	n, err := c.Next(ctx, bank.SeqAccount)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = c.Next(ctx, bank.LCSequence(2025))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = c.Next(ctx, bank.SeqEscrow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.Sentinel(apperrors.ErrCodeBankStoreFailed)))
	assert.NoError(t, mock.ExpectationsWereMet())

	db2, mock2, err := sqlmock.New()
	require.NoError(t, err)
	defer db2.Close()
	mock2.ExpectQuery(regexp.QuoteMeta(nextSequenceSQL)).
		WithArgs(bank.SeqAccount).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(43)))
	acct, err := bank.NewIDGenerator(NewPostgresCounter(db2)).AccountNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BRAC00000043", acct)
	assert.NoError(t, mock2.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	state := bank.NewBankState("inv-1", "Acme Ltd", "APP-100", "brac-bank", testNow)

	tests := []struct {
		name     string
		mock     func(sqlmock.Sqlmock)
		wantCode apperrors.ErrorCode
	}{
		{
			name: "found",
			mock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).WithArgs("inv-1").
					WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(stateJSON(t, state)))
			},
		},
		{
			name: "not found",
			mock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).WithArgs("inv-1").
					WillReturnRows(sqlmock.NewRows([]string{"state"}))
			},
			wantCode: apperrors.ErrCodeBankStateNotFound,
		},
		{
			name: "connection failure",
			mock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).WithArgs("inv-1").
					WillReturnError(errors.New("connection refused"))
			},
			wantCode: apperrors.ErrCodeBankStoreFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockPostgres(t)
			tt.mock(mock)

			got, err := s.Get(context.Background(), "inv-1")
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.Normalize(err).Code)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Acme Ltd", got.InvestorName)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_Create(t *testing.T) {
	state := bank.NewBankState("inv-1", "Acme Ltd", "APP-100", "brac-bank", testNow)

	t.Run("inserts new row", func(t *testing.T) {
		s, mock := newMockPostgres(t)
		mock.ExpectExec(regexp.QuoteMeta(insertStateSQL)).
			WithArgs("inv-1", sqlmock.AnyArg(), testNow, testNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, created, err := s.Create(context.Background(), state)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing row is returned", func(t *testing.T) {
		s, mock := newMockPostgres(t)
		existing := bank.NewBankState("inv-1", "First Name", "APP-1", "brac-bank", testNow)
		mock.ExpectExec(regexp.QuoteMeta(insertStateSQL)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).WithArgs("inv-1").
			WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(stateJSON(t, existing)))

		got, created, err := s.Create(context.Background(), state)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "First Name", got.InvestorName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Update(t *testing.T) {
	state := bank.NewBankState("inv-1", "Acme Ltd", "APP-100", "brac-bank", testNow)

	t.Run("locks row and writes", func(t *testing.T) {
		s, mock := newMockPostgres(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectForUpdateSQL)).WithArgs("inv-1").
			WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(stateJSON(t, state)))
		mock.ExpectExec(regexp.QuoteMeta(updateStateSQL)).
			WithArgs("inv-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		updated, err := s.Update(context.Background(), "inv-1", func(st *bank.BankState) error {
			st.CompleteStep(bank.StepCompleteKYC)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{bank.StepCompleteKYC}, updated.CompletedSteps)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejected update rolls back", func(t *testing.T) {
		s, mock := newMockPostgres(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectForUpdateSQL)).WithArgs("inv-1").
			WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(stateJSON(t, state)))
		mock.ExpectRollback()

		_, err := s.Update(context.Background(), "inv-1", func(*bank.BankState) error {
			return apperrors.NewAccountNotActiveError("inv-1")
		})
		assert.ErrorIs(t, err, bank.ErrAccountNotActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		s, mock := newMockPostgres(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectForUpdateSQL)).WithArgs("inv-1").
			WillReturnRows(sqlmock.NewRows([]string{"state"}))
		mock.ExpectRollback()

		_, err := s.Update(context.Background(), "inv-1", func(*bank.BankState) error { return nil })
		assert.ErrorIs(t, err, bank.ErrBankStateNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialization failure is a conflict", func(t *testing.T) {
		s, mock := newMockPostgres(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectForUpdateSQL)).WithArgs("inv-1").
			WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})
		mock.ExpectRollback()

		_, err := s.Update(context.Background(), "inv-1", func(*bank.BankState) error { return nil })
		require.Error(t, err)
		stdErr := apperrors.Normalize(err)
		assert.Equal(t, apperrors.ErrCodeBankStoreConflict, stdErr.Code)
		assert.True(t, stdErr.Retryable)
	})
}
