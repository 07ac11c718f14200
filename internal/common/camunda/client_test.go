package camunda

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	apperrors "bida-banking-workers/internal/common/errors"
	"bida-banking-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(max int) RetryConfig {
	return RetryConfig{MaxRetries: max, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestWithBackoff(t *testing.T) {
	tests := []struct {
		name          string
		errs          []error
		maxRetries    int
		expectErr     bool
		expectedCalls int
	}{
		{
			name:          "succeeds first time",
			errs:          []error{nil},
			maxRetries:    3,
			expectedCalls: 1,
		},
		{
			name:          "retries transient errors then succeeds",
			errs:          []error{stderrors.New("connection refused"), stderrors.New("Unavailable"), nil},
			maxRetries:    5,
			expectedCalls: 3,
		},
		{
			name:          "stops on permanent error",
			errs:          []error{stderrors.New("permission denied")},
			maxRetries:    5,
			expectErr:     true,
			expectedCalls: 1,
		},
		{
			name: "gives up after max retries",
			errs: []error{
				stderrors.New("timeout"), stderrors.New("timeout"), stderrors.New("timeout"),
			},
			maxRetries:    3,
			expectErr:     true,
			expectedCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithBackoff(context.Background(), fastRetry(tt.maxRetries), "test op", logger.NewNoOpLogger(),
				func(context.Context) error {
					err := tt.errs[calls]
					calls++
					return err
				})

			assert.Equal(t, tt.expectedCalls, calls)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retry := RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	err := WithBackoff(ctx, retry, "zeebe connect", logger.NewNoOpLogger(), func(context.Context) error {
		return stderrors.New("connection refused")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		code apperrors.ErrorCode
	}{
		{"context deadline exceeded", "TIMEOUT_ERROR"},
		{"process not found", apperrors.ErrCodeResourceNotFound},
		{"Unauthorized", "AUTHENTICATION_ERROR"},
		{"connection refused", apperrors.ErrCodeExternalService},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := mapZeebeError(stderrors.New(tt.msg), "connect")
			assert.Equal(t, tt.code, apperrors.Normalize(err).Code)
		})
	}
}

func TestDecodeVariables(t *testing.T) {
	vars, err := DecodeVariables(`{"investorId":"inv-1","amount":9007199254740993,"rate":1234567.123456789012345678}`)
	require.NoError(t, err)

	assert.Equal(t, "inv-1", vars["investorId"])
	assert.Equal(t, json.Number("9007199254740993"), vars["amount"])
	assert.Equal(t, json.Number("1234567.123456789012345678"), vars["rate"])

	empty, err := DecodeVariables("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = DecodeVariables(`{"amount":`)
	assert.Error(t, err)
}
