// Package banking holds the shared worker configuration for the bank task types.
package banking

import (
	"time"

	"bida-banking-workers/internal/common/config"
)

const defaultTimeout = 30 * time.Second

// Config is the per-worker configuration every banking worker receives.
type Config struct {
	Timeout time.Duration
}

// LoadConfig reads the worker's settings, falling back to a 30s timeout.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Config{Timeout: timeout}
}
