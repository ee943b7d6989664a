package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bank_ledger/internal/ledger"
	"bank_ledger/internal/server"
	"bank_ledger/pkg/metrics"
)

const (
	appName            = "bank_ledger"
	defaultListenAddr  = ":27015"
	defaultMetricsAddr = ":9090"
)

func main() {
	logger := setupLogger()
	logger.Info("Starting application",
		slog.String("name", appName))

	listenAddr := envOr("LEDGER_LISTEN_ADDR", defaultListenAddr)
	metricsAddr := envOr("LEDGER_METRICS_ADDR", defaultMetricsAddr)

	metricsCollector := metrics.NewMetricsCollector(logger)
	bankLedger := ledger.NewLedger(ledger.DefaultWaitTimeout)
	ledgerServer := server.New(listenAddr, bankLedger, metricsCollector, logger)

	if err := ledgerServer.Start(); err != nil {
		logger.Error("Ledger server failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}

	metricsServer := metricsCollector.StartMetricsServer(metricsAddr)

	waitForShutdown(logger, ledgerServer, metricsServer, metricsCollector)
	logger.Info("Application shutdown complete")
}

func setupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func waitForShutdown(
	logger *slog.Logger,
	ledgerServer *server.Server,
	metricsServer *http.Server,
	metricsCollector *metrics.MetricsCollector,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ledgerServer.Shutdown(ctx); err != nil {
		logger.Error("Ledger server shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsCollector.Shutdown(ctx); err != nil {
		logger.Error("Metrics collector shutdown failed", slog.String("error", err.Error()))
	}
}
