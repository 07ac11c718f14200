package bank

import (
	"context"
	"time"
)

// Notifier delivers appended bank messages outside the process.
type Notifier interface {
	Notify(ctx context.Context, investorID string, msg BankMessage) error
}

// EventPublisher emits domain events keyed by investor.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// Event is published after each successful mutation.
type Event struct {
	InvestorID    string    `json:"investorId"`
	ApplicationID string    `json:"applicationId,omitempty"`
	Operation     string    `json:"operation"`
	OccurredAt    time.Time `json:"occurredAt"`
}
