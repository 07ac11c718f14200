package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bida-banking-workers/internal/bank"
	apperrors "bida-banking-workers/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

const (
	stateKeyPrefix    = "bank:state:"
	sequenceKeyPrefix = "bank:seq:"
)

func stateKey(investorID string) string { return stateKeyPrefix + investorID }

// RedisStore keeps one JSON document per investor. Updates use optimistic
// WATCH/MULTI and are retried when the key changes underneath.
type RedisStore struct {
	client     *redis.Client
	maxRetries int
}

func NewRedisStore(client *redis.Client, maxRetries int) *RedisStore {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &RedisStore{client: client, maxRetries: maxRetries}
}

func (r *RedisStore) Get(ctx context.Context, investorID string) (*bank.BankState, error) {
	data, err := r.client.Get(ctx, stateKey(investorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewBankStateNotFoundError(investorID)
	}
	if err != nil {
		return nil, apperrors.NewBankStoreFailedError("get", err)
	}
	return decodeState(data)
}

func (r *RedisStore) Create(ctx context.Context, state *bank.BankState) (*bank.BankState, bool, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, false, apperrors.NewBankStoreFailedError("encode", err)
	}

	ok, err := r.client.SetNX(ctx, stateKey(state.InvestorID), data, 0).Result()
	if err != nil {
		return nil, false, apperrors.NewBankStoreFailedError("create", err)
	}
	if !ok {
		existing, err := r.Get(ctx, state.InvestorID)
		return existing, false, err
	}
	return state.Clone(), true, nil
}

func (r *RedisStore) Update(ctx context.Context, investorID string, fn bank.UpdateFunc) (*bank.BankState, error) {
	key := stateKey(investorID)
	var (
		updated *bank.BankState
		fnErr   error
	)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return apperrors.NewBankStateNotFoundError(investorID)
		}
		if err != nil {
			return apperrors.NewBankStoreFailedError("get", err)
		}

		state, err := decodeState(data)
		if err != nil {
			return err
		}
		if fnErr = fn(state); fnErr != nil {
			return fnErr
		}

		out, err := json.Marshal(state)
		if err != nil {
			return apperrors.NewBankStoreFailedError("encode", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = state
		return nil
	}

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if fnErr != nil {
			return nil, fnErr
		}
		var stdErr *apperrors.StandardError
		if errors.As(err, &stdErr) {
			return nil, err
		}
		return nil, apperrors.NewBankStoreFailedError("update", err)
	}

	return nil, apperrors.NewBankStoreConflictError(investorID, r.maxRetries)
}

func decodeState(data []byte) (*bank.BankState, error) {
	var state bank.BankState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, apperrors.NewBankStoreFailedError("decode", fmt.Errorf("corrupt bank state: %w", err))
	}
	return &state, nil
}

// RedisCounter implements bank.Counter with INCR.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Next(ctx context.Context, name string) (int64, error) {
	n, err := c.client.Incr(ctx, sequenceKeyPrefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", name, err)
	}
	return n, nil
}
