package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/skillpath/gateway/pkg/analytics"
	"github.com/skillpath/gateway/pkg/cache"
	"github.com/skillpath/gateway/pkg/config"
	"github.com/skillpath/gateway/pkg/gateway"
	"github.com/skillpath/gateway/pkg/ledger"
	"github.com/skillpath/gateway/pkg/logging"
	"github.com/skillpath/gateway/pkg/metrics"
	"github.com/skillpath/gateway/pkg/registry"
	"github.com/skillpath/gateway/pkg/tracing"
)

func main() {
	cfg, err := config.Load("gateway.yaml")
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer logger.Sync()

	reg, err := registry.NewLoader(cfg.ModelsPath).LoadRegistry()
	if err != nil {
		logger.Fatal("failed to load model registry", zap.Error(err))
	}

	led := ledger.NewLedger(reg, cfg.Limits, logger)
	led.Subscribe(func(alert ledger.Alert) {
		logger.Warn("budget alert",
			zap.String("kind", string(alert.Kind)),
			zap.Float64("threshold", alert.Threshold),
			zap.Float64("current", alert.Current),
			zap.Float64("percentage", alert.Percentage))
	})
	led.StartRetention(cfg.Retention.Interval, cfg.Retention.Horizon)
	defer led.Close()

	respCache, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Fatal("failed to create response cache", zap.Error(err))
	}

	opts := []gateway.Option{gateway.WithMetrics(metrics.New())}
	if cfg.Tracing.JaegerEndpoint != "" {
		tracer, err := tracing.NewTracer(cfg.Tracing)
		if err != nil {
			logger.Fatal("failed to create tracer", zap.Error(err))
		}
		opts = append(opts, gateway.WithTracer(tracer))
	}

	gw := gateway.New(reg, led, respCache, gateway.Config{
		Retry:   cfg.Retry,
		Breaker: cfg.Breaker,
	}, logger, opts...)

	engine := analytics.NewEngine(gw, cfg.Analytics.EmbeddingModel,
		analytics.WithConcurrency(cfg.Analytics.Concurrency),
		analytics.WithLogger(logger))
	_ = engine // consumed by the platform services that embed this process

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gw.Stats(7))
	})

	server := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		logger.Info("gateway listening",
			zap.String("addr", cfg.ListenAddr),
			zap.Int("models", reg.TotalModels()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	server.Close()
}
