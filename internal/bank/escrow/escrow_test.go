package escrow

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/bank/store"
	"bida-banking-workers/internal/common/logger"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceWithEscrow(t *testing.T) *bank.Service {
	t.Helper()
	ctx := context.Background()
	svc := bank.NewService(bank.Options{
		Repository: store.NewMemoryStore(),
		Logger:     logger.NewNoOpLogger(),
	})

	_, _, err := svc.InitBankState(ctx, "inv-1", "Acme Ltd", "APP-100")
	require.NoError(t, err)
	_, err = svc.PerformKYC(ctx, "inv-1")
	require.NoError(t, err)
	_, err = svc.OpenCorporateAccount(ctx, "inv-1", "Acme Ltd")
	require.NoError(t, err)
	_, err = svc.CreateEscrow(ctx, "inv-1", "APP-100", decimal.NewFromInt(500000), "Conditional approval escrow")
	require.NoError(t, err)
	return svc
}

func TestHook_TriggerEscrowRelease(t *testing.T) {
	ctx := context.Background()
	svc := newServiceWithEscrow(t)
	hook := NewHook(svc, 0, logger.NewTestLogger(t))

	esc, err := hook.TriggerEscrowRelease(ctx, "inv-1", "APP-OTHER")
	require.NoError(t, err)
	assert.Nil(t, esc)

	esc, err = hook.TriggerEscrowRelease(ctx, "inv-1", "APP-100")
	require.NoError(t, err)
	require.NotNil(t, esc)
	assert.Equal(t, bank.EscrowReleased, esc.Status)
	assert.Equal(t, approvedReason, esc.ReleaseReason)

	esc, err = hook.OnApplicationApproved(ctx, "inv-1", "APP-100")
	require.NoError(t, err)
	assert.Nil(t, esc)

	esc, err = hook.TriggerEscrowRelease(ctx, "unknown", "APP-100")
	require.NoError(t, err)
	assert.Nil(t, esc)
}

type failingReleaser struct{}

func (failingReleaser) AutoReleaseEscrow(context.Context, string, string, string) (*bank.EscrowAccount, bool, error) {
	return nil, false, errors.New("store down")
}

func TestHook_PropagatesFailures(t *testing.T) {
	hook := NewHook(failingReleaser{}, 0, logger.NewNoOpLogger())
	_, err := hook.TriggerEscrowRelease(context.Background(), "inv-1", "APP-100")
	assert.Error(t, err)
}

func TestHook_SimulateApproval(t *testing.T) {
	svc := newServiceWithEscrow(t)
	hook := NewHook(svc, 10*time.Millisecond, logger.NewNoOpLogger())

	select {
	case res := <-hook.SimulateApproval(context.Background(), "inv-1", "APP-100"):
		require.NoError(t, res.Err)
		require.NotNil(t, res.Escrow)
		assert.Equal(t, bank.EscrowReleased, res.Escrow.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("approval was not simulated")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewHook(svc, time.Hour, logger.NewNoOpLogger())
	res := <-slow.SimulateApproval(ctx, "inv-1", "APP-100")
	assert.ErrorIs(t, res.Err, context.Canceled)
}

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func TestListener_Run(t *testing.T) {
	svc := newServiceWithEscrow(t)
	reader := &fakeReader{messages: []kafka.Message{
		{Offset: 1, Value: []byte(`not json`)},
		{Offset: 2, Value: []byte(`{"investorId":"inv-1","applicationId":"APP-100","newStatus":"submitted"}`)},
		{Offset: 3, Value: []byte(`{"applicationId":"APP-100","newStatus":"approved"}`)},
		{Offset: 4, Value: []byte(`{"investorId":"inv-1","applicationId":"APP-100","newStatus":"APPROVED"}`)},
	}}
	l := NewListener(reader, NewHook(svc, 0, logger.NewNoOpLogger()), logger.NewTestLogger(t))

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, []int64{1, 2, 3, 4}, reader.committed)

	state, err := svc.GetBankState(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, bank.EscrowReleased, state.EscrowAccount.Status)

	require.NoError(t, l.Close())
	assert.True(t, reader.closed)
}

// flakyReleaser fails the first failures calls, then delegates.
type flakyReleaser struct {
	mu       sync.Mutex
	failures int
	calls    []string
	next     Releaser
}

func (f *flakyReleaser) AutoReleaseEscrow(ctx context.Context, investorID, applicationID, reason string) (*bank.EscrowAccount, bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, investorID)
	fail := len(f.calls) <= f.failures
	f.mu.Unlock()
	if fail {
		return nil, false, errors.New("store down")
	}
	return f.next.AutoReleaseEscrow(ctx, investorID, applicationID, reason)
}

func TestListener_FailedReleaseIsNotCommitted(t *testing.T) {
	svc := newServiceWithEscrow(t)
	reader := &fakeReader{messages: []kafka.Message{
		{Offset: 7, Value: []byte(`{"investorId":"inv-1","applicationId":"APP-100","newStatus":"approved"}`)},
		{Offset: 8, Value: []byte(`{"investorId":"inv-2","applicationId":"APP-200","newStatus":"approved"}`)},
	}}
	releaser := &flakyReleaser{failures: 2, next: svc}
	l := NewListener(reader, NewHook(releaser, 0, logger.NewNoOpLogger()), logger.NewNoOpLogger())
	l.backoff = time.Millisecond
	l.maxBackoff = 2 * time.Millisecond

	require.NoError(t, l.Run(context.Background()))

	assert.Equal(t, []int64{7, 8}, reader.committed)
	assert.Equal(t, []string{"inv-1", "inv-1", "inv-1", "inv-2"}, releaser.calls)

	state, err := svc.GetBankState(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, bank.EscrowReleased, state.EscrowAccount.Status)
}

func TestListener_StopsOnCancelWithoutSkipping(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Offset: 7, Value: []byte(`{"investorId":"inv-1","applicationId":"APP-100","newStatus":"approved"}`)},
		{Offset: 8, Value: []byte(`{"investorId":"inv-2","applicationId":"APP-200","newStatus":"approved"}`)},
	}}
	l := NewListener(reader, NewHook(failingReleaser{}, 0, logger.NewNoOpLogger()), logger.NewNoOpLogger())
	l.backoff = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Run(ctx))
	assert.Empty(t, reader.committed)
	require.Len(t, reader.messages, 1)
	assert.Equal(t, int64(8), reader.messages[0].Offset)
}
