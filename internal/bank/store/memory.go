// Package store holds the Bank State Store backends.
package store

import (
	"context"
	"sync"

	"bida-banking-workers/internal/bank"
	apperrors "bida-banking-workers/internal/common/errors"
)

// MemoryStore keeps state in process. Records are cloned on the way in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*bank.BankState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*bank.BankState)}
}

func (m *MemoryStore) Get(_ context.Context, investorID string) (*bank.BankState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[investorID]
	if !ok {
		return nil, apperrors.NewBankStateNotFoundError(investorID)
	}
	return state.Clone(), nil
}

func (m *MemoryStore) Create(_ context.Context, state *bank.BankState) (*bank.BankState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.states[state.InvestorID]; ok {
		return existing.Clone(), false, nil
	}
	m.states[state.InvestorID] = state.Clone()
	return state.Clone(), true, nil
}

func (m *MemoryStore) Update(_ context.Context, investorID string, fn bank.UpdateFunc) (*bank.BankState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.states[investorID]
	if !ok {
		return nil, apperrors.NewBankStateNotFoundError(investorID)
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	m.states[investorID] = next
	return next.Clone(), nil
}

// Len reports how many investors have state.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}
