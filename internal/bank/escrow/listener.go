package escrow

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"bida-banking-workers/internal/common/logger"

	"github.com/segmentio/kafka-go"
)

const StatusApproved = "approved"

// ApplicationStatusChanged is consumed from the application events topic.
type ApplicationStatusChanged struct {
	InvestorID    string `json:"investorId"`
	ApplicationID string `json:"applicationId"`
	NewStatus     string `json:"newStatus"`
}

// MessageReader is the subset of *kafka.Reader the listener needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Listener feeds application approvals into the hook.
type Listener struct {
	reader     MessageReader
	hook       *Hook
	logger     logger.Logger
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewListener(reader MessageReader, hook *Hook, log logger.Logger) *Listener {
	return &Listener{
		reader:     reader,
		hook:       hook,
		logger:     log.WithFields(map[string]interface{}{"component": "escrow-listener"}),
		backoff:    time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Run consumes until ctx is cancelled. A message is committed only after it
// was handled; a failed release is retried before the next fetch, so a later
// commit never moves the offset past it.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info("escrow listener started", nil)
	defer l.logger.Info("escrow listener stopped", nil)

	for {
		msg, err := l.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			l.logger.Warn("fetch application event failed", map[string]interface{}{"error": err.Error()})
			select {
			case <-time.After(l.backoff):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		if !l.handleUntilDone(ctx, msg) {
			return nil
		}

		if err := l.reader.CommitMessages(ctx, msg); err != nil {
			l.logger.Warn("commit application event failed", map[string]interface{}{
				"offset": msg.Offset,
				"error":  err.Error(),
			})
		}
	}
}

// handleUntilDone retries Handle with exponential backoff. It returns false
// when ctx ended before the message was handled.
func (l *Listener) handleUntilDone(ctx context.Context, msg kafka.Message) bool {
	delay := l.backoff
	for attempt := 1; ; attempt++ {
		err := l.Handle(ctx, msg)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		l.logger.Error("application event not handled, retrying", map[string]interface{}{
			"offset":      msg.Offset,
			"attempt":     attempt,
			"error":       err.Error(),
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false
		}

		delay *= 2
		if delay > l.maxBackoff {
			delay = l.maxBackoff
		}
	}
}

// Handle processes one event. Malformed events are logged and skipped.
func (l *Listener) Handle(ctx context.Context, msg kafka.Message) error {
	var event ApplicationStatusChanged
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		l.logger.Warn("skipping malformed application event", map[string]interface{}{
			"offset": msg.Offset,
			"error":  err.Error(),
		})
		return nil
	}
	if event.InvestorID == "" {
		l.logger.Warn("skipping application event without investorId", map[string]interface{}{"offset": msg.Offset})
		return nil
	}

	if !strings.EqualFold(event.NewStatus, StatusApproved) {
		l.logger.Debug("ignoring application status", map[string]interface{}{
			"investorId": event.InvestorID,
			"newStatus":  event.NewStatus,
		})
		return nil
	}

	_, err := l.hook.OnApplicationApproved(ctx, event.InvestorID, event.ApplicationID)
	return err
}

func (l *Listener) Close() error {
	return l.reader.Close()
}
