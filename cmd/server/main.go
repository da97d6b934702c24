package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/nathanyu/matching-engine/internal/book"
	"github.com/nathanyu/matching-engine/internal/config"
	"github.com/nathanyu/matching-engine/internal/handler"
	"github.com/nathanyu/matching-engine/internal/middleware"
	"github.com/nathanyu/matching-engine/internal/sequencer"
	"github.com/nathanyu/matching-engine/internal/store"
	"github.com/nathanyu/matching-engine/internal/telemetry"
	"github.com/nathanyu/matching-engine/internal/trades"
)

const serviceName = "matching-engine"

func main() {
	cfg := config.Load()
	logger := telemetry.NewLogger(cfg.LogLevel, cfg.LogFile)

	shutdownTracer, err := telemetry.InitTracer(serviceName, logger)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer shutdownTracer()

	// --- Store backend ---
	var (
		orderStore store.OrderStore
		bookIndex  store.BookIndex
	)
	switch cfg.StoreBackend {
	case config.StoreRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to parse REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Error("failed to connect to redis", "addr", opt.Addr, "error", err)
			os.Exit(1)
		}
		backend := store.NewRedis(client)
		orderStore, bookIndex = backend, backend
		logger.Info("using redis store", "addr", opt.Addr)
	default:
		backend := store.NewMemory()
		orderStore, bookIndex = backend, backend
		logger.Info("using in-memory store")
	}

	// --- Trade event publisher ---
	var publisher trades.Publisher
	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Error("failed to connect to NATS", "url", cfg.NATSURL, "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		publisher = trades.NewNATSPublisher(conn)
		logger.Info("publishing trades to NATS", "subject", trades.TradeSubject)
	} else {
		publisher = trades.NewRecorder()
		logger.Info("no NATS_URL configured, recording trades in process")
	}

	// --- Core ---
	engine := book.New(orderStore, bookIndex, sequencer.New(), publisher, logger)

	// --- HTTP server ---
	r := gin.Default()
	r.Use(middleware.Prometheus())
	r.Use(middleware.Tracing())

	h := handler.NewHandler(engine)
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// --- Metrics server ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server listening", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		logger.Info("http server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		logger.Error("metrics server shutdown error", "error", err)
	}

	logger.Info("stopped")
}
