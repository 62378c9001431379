package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cordum/pathpack/core/attach"
	"github.com/cordum/pathpack/core/hooks"
	"github.com/cordum/pathpack/core/infra/buildinfo"
	"github.com/cordum/pathpack/core/infra/bus"
	"github.com/cordum/pathpack/core/infra/config"
	"github.com/cordum/pathpack/core/infra/logging"
	"github.com/cordum/pathpack/core/infra/messages"
	infraMetrics "github.com/cordum/pathpack/core/infra/metrics"
	"github.com/cordum/pathpack/core/records"
	"github.com/cordum/pathpack/core/worker"
)

const service = "pathpack-worker"

func main() {
	buildinfo.Log(service)
	cfg := config.Load()

	hooksCfg, err := config.LoadHooksConfig(cfg.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load hooks config (%s): %v", cfg.ConfigPath, err)
	}
	catalog, err := messages.ForLocale(cfg.Locale)
	if err != nil {
		log.Printf("using default message catalog (locale %s): %v", cfg.Locale, err)
		catalog = messages.Default()
	}

	metrics := infraMetrics.NewProm("pathpack")
	metricsSrv := startMetrics(cfg.MetricsAddr)

	recordStore, err := records.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to Redis for records: %v", err)
	}
	defer recordStore.Close()

	attachStore, err := attach.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to Redis for attachments: %v", err)
	}
	defer attachStore.Close()

	natsBus, err := bus.NewNatsBus(cfg.NatsURL, service)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}
	defer natsBus.Close()

	registry := hooks.FromConfig(hooksCfg, hooks.Deps{
		Descriptors: recordStore,
		Attachments: attachStore,
		Messages:    catalog,
		Metrics:     metrics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.New(recordStore, registry, natsBus, metrics)
	logging.Info(service, "running", "hooks", registry.Types(), "nats", natsBus.ConnectedURL())
	if err := w.Run(ctx, natsBus); err != nil {
		log.Fatalf("worker error: %v", err)
	}

	logging.Info(service, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
}

func startMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", infraMetrics.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logging.Info(service, "metrics listening", "addr", addr+"/metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(service, "metrics server error", "error", err)
		}
	}()
	return srv
}
