// cmd/worker-manager/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"bida-banking-workers/internal/api"
	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/bank/documents"
	"bida-banking-workers/internal/bank/escrow"
	"bida-banking-workers/internal/bank/store"
	"bida-banking-workers/internal/common/camunda"
	"bida-banking-workers/internal/common/config"
	"bida-banking-workers/internal/common/logger"
	"bida-banking-workers/internal/common/messaging"
	"bida-banking-workers/internal/common/observability"
	"bida-banking-workers/internal/workers/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	log.Info("starting worker manager", map[string]interface{}{
		"environment": cfg.App.Environment,
		"store":       cfg.Banking.Store,
	})

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Backends ---
	infra, err := connectInfrastructure(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("infrastructure init failed", zap.Error(err))
	}
	defer infra.Close()

	repo, counter, err := store.New(ctx, cfg.Banking, infra.backends())
	if err != nil {
		zapLog.Fatal("bank store init failed", zap.Error(err))
	}
	log.Info("bank state store ready", map[string]interface{}{"store": cfg.Banking.Store})

	partners := bank.DefaultPartnerRegistry()
	if cfg.Banking.PartnersFile != "" {
		partners, err = bank.LoadPartnerRegistry(cfg.Banking.PartnersFile)
		if err != nil {
			zapLog.Fatal("partner catalogue load failed", zap.Error(err))
		}
	}

	var latency bank.LatencySimulator = bank.NoLatency
	if cfg.Banking.SimulateLatency {
		latency = bank.NewFixedLatency(cfg.Banking.Latency)
	}

	// --- Outbound channels ---
	opts := bank.Options{
		Repository:  repo,
		IDs:         bank.NewIDGenerator(counter),
		Latency:     latency,
		Partners:    partners,
		Logger:      log,
		DefaultBank: cfg.Banking.DefaultBank,
	}

	notifier, err := buildNotifier(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("notifier init failed", zap.Error(err))
	}
	opts.Notifier = notifier

	var publisher *messaging.Publisher
	if cfg.Kafka.Enabled {
		publisher = messaging.NewPublisher(cfg.Kafka)
		defer publisher.Close()
		opts.Events = publisher
	}

	svc := bank.NewService(opts)
	hook := escrow.NewHook(svc, config.GetDuration(cfg.Banking.AutoReleaseDelay), log)

	var indexer *documents.Indexer
	if infra.es != nil {
		indexer = documents.NewIndexer(infra.es.Client, cfg.Database.Elasticsearch.DocumentIndex, log)
	}

	var wg sync.WaitGroup

	// --- Application status events ---
	if cfg.Kafka.Enabled {
		listener := escrow.NewListener(messaging.NewReader(cfg.Kafka), hook, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := listener.Run(ctx); err != nil {
				log.Error("application event listener stopped", map[string]interface{}{"error": err.Error()})
			}
			_ = listener.Close()
		}()
	}

	// --- Zeebe workers ---
	var (
		zeebe      *camunda.Client
		jobWorkers []worker.JobWorker
	)
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.Connect(ctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		log.Info("zeebe client connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

		deps := registry.Dependencies{
			Service:  svc,
			Hook:     hook,
			Recorder: obs,
			Logger:   log,
		}
		if indexer != nil {
			deps.Indexer = indexer
		}
		jobWorkers = registry.Start(zeebe.Zeebe(), cfg, deps)
	}

	// --- HTTP ---
	apiOpts := api.Options{
		Service: svc,
		Checks:  infra.checks(),
		Logger:  log,
	}
	if indexer != nil {
		apiOpts.Search = indexer
	}
	if zeebe != nil {
		apiOpts.Checks["zeebe"] = zeebe.HealthCheck
	}
	server := api.NewServer(apiOpts)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.ListenAndServe(ctx, cfg.HTTP.Address); err != nil {
			log.Error("http server stopped", map[string]interface{}{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	for _, w := range jobWorkers {
		w.Close()
	}
	for _, w := range jobWorkers {
		w.AwaitClose()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Warn("timed out waiting for background tasks", nil)
	}

	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			log.Error("error closing zeebe client", map[string]interface{}{"error": err.Error()})
		}
	}

	log.Info("worker manager stopped gracefully", nil)
}
