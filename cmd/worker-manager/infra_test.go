package main

import (
	"context"
	stderrors "errors"
	"testing"

	"bida-banking-workers/internal/common/config"
	apperrors "bida-banking-workers/internal/common/errors"
	"bida-banking-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectInfrastructure_MemoryStoreNeedsNothing(t *testing.T) {
	cfg := &config.Config{}
	cfg.Banking.Store = config.StoreMemory

	infra, err := connectInfrastructure(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer infra.Close()

	assert.Nil(t, infra.pg)
	assert.Nil(t, infra.redis)
	assert.Empty(t, infra.checks())
	assert.Nil(t, infra.backends().Redis)
}

func TestConnectInfrastructure_RedisUnavailable(t *testing.T) {
	cfg := &config.Config{}
	cfg.Banking.Store = config.StoreRedis
	cfg.Database.Redis.Address = "127.0.0.1:1"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := connectInfrastructure(ctx, cfg, logger.NewNoOpLogger())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, apperrors.Sentinel(apperrors.ErrCodeDatabaseConnectionFailed)))
	assert.True(t, apperrors.Normalize(err).Retryable)
}
