package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsCollector struct {
	registry            *prometheus.Registry
	operationsProcessed *prometheus.CounterVec
	operationsFailed    *prometheus.CounterVec
	operationDuration   prometheus.Histogram
	withdrawalWait      prometheus.Histogram
	openAccounts        prometheus.Gauge
	accountBalance      *prometheus.GaugeVec
	mu                  sync.RWMutex
	logger              *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	collector := &MetricsCollector{
		registry: registry,
		operationsProcessed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_processed_total",
			Help: "Total number of completed ledger operations",
		}, []string{"kind"}),
		operationsFailed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_failed_total",
			Help: "Total number of failed ledger operations",
		}, []string{"kind"}),
		operationDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Time taken to process a ledger operation",
			Buckets: prometheus.DefBuckets,
		}),
		withdrawalWait: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_withdrawal_wait_seconds",
			Help:    "Time a withdrawal spent waiting for sufficient funds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 3, 5},
		}),
		openAccounts: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "ledger_open_accounts",
			Help: "Number of open accounts",
		}),
		accountBalance: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "ledger_account_balance",
			Help: "Current account balance",
		}, []string{"account_id"}),
		logger: logger,
	}

	return collector
}

func (m *MetricsCollector) RecordOperation(kind string, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if success {
		m.operationsProcessed.WithLabelValues(kind).Inc()
	} else {
		m.operationsFailed.WithLabelValues(kind).Inc()
	}

	m.operationDuration.Observe(duration.Seconds())
}

func (m *MetricsCollector) RecordWithdrawalWait(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.withdrawalWait.Observe(duration.Seconds())
}

func (m *MetricsCollector) AccountOpened() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openAccounts.Inc()
}

func (m *MetricsCollector) UpdateAccountBalance(accountID string, balance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountBalance.WithLabelValues(accountID).Set(balance)
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	m.logger.Info("Metrics collector shutdown complete")
	return nil
}
