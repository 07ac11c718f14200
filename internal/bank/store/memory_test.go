package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bida-banking-workers/internal/bank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "inv-1")
	assert.ErrorIs(t, err, bank.ErrBankStateNotFound)

	state := bank.NewBankState("inv-1", "Acme Ltd", "APP-100", "brac-bank", testNow)
	stored, created, err := s.Create(ctx, state)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Acme Ltd", stored.InvestorName)

	again, created, err := s.Create(ctx, bank.NewBankState("inv-1", "Other", "APP-200", "hsbc-bd", testNow))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Acme Ltd", again.InvestorName)
	assert.Equal(t, "APP-100", again.ApplicationID)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, _, err := s.Create(ctx, bank.NewBankState("inv-1", "Acme Ltd", "APP-100", "brac-bank", testNow))
	require.NoError(t, err)

	got, err := s.Get(ctx, "inv-1")
	require.NoError(t, err)
	got.CompletedSteps = append(got.CompletedSteps, "tampered")

	fresh, err := s.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Empty(t, fresh.CompletedSteps)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, _, err := s.Create(ctx, bank.NewBankState("inv-1", "Acme Ltd", "APP-100", "brac-bank", testNow))
	require.NoError(t, err)

	updated, err := s.Update(ctx, "inv-1", func(st *bank.BankState) error {
		st.CompleteStep(bank.StepCompleteKYC)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{bank.StepCompleteKYC}, updated.CompletedSteps)

	t.Run("failed update leaves state untouched", func(t *testing.T) {
		_, err := s.Update(ctx, "inv-1", func(st *bank.BankState) error {
			st.InvestorName = "changed"
			return errors.New("precondition failed")
		})
		require.Error(t, err)

		got, err := s.Get(ctx, "inv-1")
		require.NoError(t, err)
		assert.Equal(t, "Acme Ltd", got.InvestorName)
	})

	t.Run("missing investor", func(t *testing.T) {
		_, err := s.Update(ctx, "nobody", func(*bank.BankState) error { return nil })
		assert.ErrorIs(t, err, bank.ErrBankStateNotFound)
	})
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, _, err := s.Create(ctx, bank.NewBankState("inv-1", "Acme Ltd", "APP-100", "brac-bank", testNow))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "inv-1", func(st *bank.BankState) error {
				st.Messages = append(st.Messages, bank.BankMessage{Subject: "x"})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 50)
	assert.Equal(t, 1, s.Len())
}
