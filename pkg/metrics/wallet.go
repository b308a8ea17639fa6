package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WalletMetrics records outcomes and latencies for wallet operations.
type WalletMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	settled  prometheus.Counter
}

// NewWalletMetrics registers the wallet metrics on the provided registerer.
func NewWalletMetrics(reg prometheus.Registerer) *WalletMetrics {
	if reg == nil {
		return &WalletMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wallet_operation_duration_seconds",
		Help:    "Duration of wallet operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_operation_total",
		Help: "Wallet operations by outcome.",
	}, []string{"operation", "outcome"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_payout_payments_settled_total",
		Help: "Payments settled through payout batches.",
	})
	reg.MustRegister(duration, outcomes, settled)
	return &WalletMetrics{
		duration: duration,
		outcomes: outcomes,
		settled:  settled,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *WalletMetrics) ObserveDuration(operation string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(d.Seconds())
}

// IncOutcome counts one operation result (ok, rejected, error, replayed).
func (m *WalletMetrics) IncOutcome(operation, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// AddSettled counts payments settled in a payout batch.
func (m *WalletMetrics) AddSettled(count int) {
	if m == nil || m.settled == nil || count <= 0 {
		return
	}
	m.settled.Add(float64(count))
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
