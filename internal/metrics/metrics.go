// Package metrics exposes Prometheus instruments for RPC reads and transactions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transaction kinds.
const (
	TxApprove = "approve"
	TxMint    = "mint"
)

// Transaction outcomes.
const (
	StatusConfirmed = "confirmed"
	StatusReverted  = "reverted"
	StatusFailed    = "failed"
)

// Metrics holds the counters and histograms for a run. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	RPCCalls          *prometheus.CounterVec
	Transactions      *prometheus.CounterVec
	ConfirmLatency    *prometheus.HistogramVec
	PoolsLocated      *prometheus.CounterVec
	PositionLiquidity prometheus.Gauge
}

// New creates a registry and registers all instruments on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RPCCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lpmanager_rpc_calls_total",
				Help: "Contract read calls by method and status",
			},
			[]string{"method", "status"},
		),

		Transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lpmanager_transactions_total",
				Help: "Submitted transactions by kind and outcome",
			},
			[]string{"kind", "status"},
		),

		ConfirmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lpmanager_confirmation_seconds",
				Help:    "Time from broadcast to receipt",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"kind"},
		),

		PoolsLocated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lpmanager_pools_located_total",
				Help: "Pool lookups by fee tier",
			},
			[]string{"fee"},
		),

		PositionLiquidity: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lpmanager_last_position_liquidity",
				Help: "Liquidity of the last minted position",
			},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCall counts a contract read.
func (m *Metrics) ObserveCall(method string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RPCCalls.WithLabelValues(method, status).Inc()
}

// ObserveTx counts a transaction outcome and, when elapsed is positive, its confirmation latency.
func (m *Metrics) ObserveTx(kind, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(kind, status).Inc()
	if elapsed > 0 {
		m.ConfirmLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}

// ObservePool counts a located pool by fee label.
func (m *Metrics) ObservePool(fee string) {
	if m == nil {
		return
	}
	m.PoolsLocated.WithLabelValues(fee).Inc()
}

// SetPositionLiquidity records the liquidity of the last minted position.
func (m *Metrics) SetPositionLiquidity(liquidity float64) {
	if m == nil {
		return
	}
	m.PositionLiquidity.Set(liquidity)
}

// WriteTextfile writes all metrics in the text exposition format, for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
