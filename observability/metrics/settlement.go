package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records settlement engine activity.
type SettlementMetrics struct {
	operations *prometheus.CounterVec
	fees       *prometheus.CounterVec
	price      prometheus.Gauge
	indices    *prometheus.GaugeVec
	supply     *prometheus.GaugeVec
}

var (
	settlementOnce     sync.Once
	settlementRegistry *SettlementMetrics
)

// Settlement returns the lazily registered settlement metrics.
func Settlement() *SettlementMetrics {
	settlementOnce.Do(func() {
		settlementRegistry = newSettlementMetrics()
		prometheus.MustRegister(
			settlementRegistry.operations,
			settlementRegistry.fees,
			settlementRegistry.price,
			settlementRegistry.indices,
			settlementRegistry.supply,
		)
	})
	return settlementRegistry
}

func newSettlementMetrics() *SettlementMetrics {
	return &SettlementMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nirvana",
			Subsystem: "settlement",
			Name:      "operations_total",
			Help:      "Settlement operations segmented by operation and outcome.",
		}, []string{"op", "outcome"}),
		fees: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nirvana",
			Subsystem: "settlement",
			Name:      "fees_total",
			Help:      "Fees collected in whole token units by fee kind.",
		}, []string{"kind"}),
		price: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nirvana",
			Subsystem: "curve",
			Name:      "ana_price",
			Help:      "Curve price of ANA at the current supply.",
		}),
		indices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nirvana",
			Subsystem: "ledger",
			Name:      "index",
			Help:      "Cumulative reward and fee indices.",
		}, []string{"index"}),
		supply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nirvana",
			Subsystem: "ledger",
			Name:      "supply",
			Help:      "Token supply and stake pool totals in whole units.",
		}, []string{"asset"}),
	}
}

// ObserveOperation counts one engine call.
func (m *SettlementMetrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// AddFee adds a collected fee expressed in whole units.
func (m *SettlementMetrics) AddFee(kind string, amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.fees.WithLabelValues(kind).Add(amount)
}

// SetPrice records the current curve price.
func (m *SettlementMetrics) SetPrice(price float64) {
	if m == nil {
		return
	}
	m.price.Set(price)
}

// SetIndex records an index value.
func (m *SettlementMetrics) SetIndex(name string, value float64) {
	if m == nil {
		return
	}
	m.indices.WithLabelValues(name).Set(value)
}

// SetSupply records a supply or pool total.
func (m *SettlementMetrics) SetSupply(asset string, value float64) {
	if m == nil {
		return
	}
	m.supply.WithLabelValues(asset).Set(value)
}
