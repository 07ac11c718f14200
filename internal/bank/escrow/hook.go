// Package escrow releases escrow when the investor's application is approved.
package escrow

import (
	"context"
	"time"

	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/common/logger"
)

const approvedReason = "Application approved"

// Releaser is implemented by *bank.Service.
type Releaser interface {
	AutoReleaseEscrow(ctx context.Context, investorID, applicationID, reason string) (*bank.EscrowAccount, bool, error)
}

// Hook is the auto-release entry point.
type Hook struct {
	releaser Releaser
	delay    time.Duration
	logger   logger.Logger
}

// NewHook builds a hook. delay is only used by SimulateApproval.
func NewHook(r Releaser, delay time.Duration, log logger.Logger) *Hook {
	return &Hook{
		releaser: r,
		delay:    delay,
		logger:   log.WithFields(map[string]interface{}{"component": "escrow-hook"}),
	}
}

// TriggerEscrowRelease releases the investor's active escrow. When there is
// nothing to release it logs and returns nil, nil.
func (h *Hook) TriggerEscrowRelease(ctx context.Context, investorID, applicationID string) (*bank.EscrowAccount, error) {
	fields := map[string]interface{}{"investorId": investorID, "applicationId": applicationID}

	esc, released, err := h.releaser.AutoReleaseEscrow(ctx, investorID, applicationID, approvedReason)
	if err != nil {
		h.logger.Error("escrow auto-release failed", merge(fields, "error", err.Error()))
		return nil, err
	}
	if !released {
		h.logger.Info("no active escrow to release", fields)
		return nil, nil
	}

	h.logger.Info("escrow auto-released", merge(fields, "escrowId", esc.EscrowID))
	return esc, nil
}

func (h *Hook) OnApplicationApproved(ctx context.Context, investorID, applicationID string) (*bank.EscrowAccount, error) {
	return h.TriggerEscrowRelease(ctx, investorID, applicationID)
}

// Result is delivered by SimulateApproval.
type Result struct {
	Escrow *bank.EscrowAccount
	Err    error
}

// SimulateApproval calls OnApplicationApproved after the configured delay.
// The channel receives exactly one Result and is then closed.
func (h *Hook) SimulateApproval(ctx context.Context, investorID, applicationID string) <-chan Result {
	out := make(chan Result, 1)

	go func() {
		defer close(out)

		timer := time.NewTimer(h.delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			out <- Result{Err: ctx.Err()}
			return
		}

		esc, err := h.OnApplicationApproved(ctx, investorID, applicationID)
		out <- Result{Escrow: esc, Err: err}
	}()

	return out
}

func merge(fields map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[key] = value
	return out
}
