package store

import (
	"context"
	"database/sql"
	"fmt"

	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// Backends carries the connections a store may need.
type Backends struct {
	Redis    *redis.Client
	Postgres *sql.DB
}

// New builds the repository and ID counter selected by cfg.Store. The
// postgres store keeps its sequences in bank_sequences unless Redis is also
// given.
func New(ctx context.Context, cfg config.BankingConfig, b Backends) (bank.Repository, bank.Counter, error) {
	switch cfg.Store {
	case "", config.StoreMemory:
		return NewMemoryStore(), bank.NewMemoryCounter(), nil

	case config.StoreRedis:
		if b.Redis == nil {
			return nil, nil, fmt.Errorf("redis store selected without a redis client")
		}
		return NewRedisStore(b.Redis, cfg.MaxUpdateRetries), NewRedisCounter(b.Redis), nil

	case config.StorePostgres:
		if b.Postgres == nil {
			return nil, nil, fmt.Errorf("postgres store selected without a database")
		}
		pg := NewPostgresStore(b.Postgres)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		var counter bank.Counter = NewPostgresCounter(b.Postgres)
		if b.Redis != nil {
			counter = NewRedisCounter(b.Redis)
		}
		return pg, counter, nil

	default:
		return nil, nil, fmt.Errorf("unknown bank store %q", cfg.Store)
	}
}
