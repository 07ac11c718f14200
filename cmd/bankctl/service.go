// cmd/bankctl/service.go
package main

import (
	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/bank/store"
	"bida-banking-workers/internal/common/config"
	"bida-banking-workers/internal/common/logger"
)

// newService builds an in-memory bank. latency=false skips the simulated
// processing delays.
func newService(latency bool) (*bank.Service, error) {
	partners := bank.DefaultPartnerRegistry()
	if partnersFile != "" {
		var err error
		if partners, err = bank.LoadPartnerRegistry(partnersFile); err != nil {
			return nil, err
		}
	}

	log := logger.NewNoOpLogger()
	if verbose {
		log = logger.NewStructured("debug", "console")
	}

	var sim bank.LatencySimulator = bank.NoLatency
	if latency {
		sim = bank.NewFixedLatency(config.DefaultLatency)
	}

	return bank.NewService(bank.Options{
		Repository: store.NewMemoryStore(),
		Latency:    sim,
		Partners:   partners,
		Logger:     log,
	}), nil
}
