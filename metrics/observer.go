// Package metrics exports transaction statistics of frp runtimes to
// Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AnatoleLucet/frp"
)

const namespace = "frp"

// Observer implements frp.Observer by updating Prometheus collectors.
// Register it with frp.WithObserver.
type Observer struct {
	transactions *prometheus.CounterVec
	firings      *prometheus.CounterVec
	listeners    *prometheus.CounterVec
	errors       *prometheus.CounterVec
	phases       *prometheus.CounterVec
	queueDepth   *prometheus.GaugeVec
	duration     *prometheus.HistogramVec
}

var _ frp.Observer = (*Observer)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Total number of closed transactions",
		}, []string{"runtime"}),
		firings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_firings_total",
			Help:      "Total number of node firings",
		}, []string{"runtime"}),
		listeners: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listener_calls_total",
			Help:      "Total number of listener callbacks invoked",
		}, []string{"runtime"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_errors_total",
			Help:      "Total number of listener and propagation failures",
		}, []string{"runtime"}),
		phases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phases_total",
			Help:      "Total number of transaction phases entered",
		}, []string{"phase"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth_max",
			Help:      "Largest rank queue of the last closed transaction",
		}, []string{"runtime"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Duration of transactions from open to close",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"runtime"}),
	}

	for _, c := range []prometheus.Collector{
		o.transactions, o.firings, o.listeners, o.errors, o.phases, o.queueDepth, o.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// MustNew is New that panics on registration failure.
func MustNew(reg prometheus.Registerer) *Observer {
	o, err := New(reg)
	if err != nil {
		panic(err)
	}
	return o
}

func (o *Observer) PhaseStarted(_ uint64, phase frp.Phase) {
	o.phases.WithLabelValues(phase.String()).Inc()
}

func (o *Observer) NodeFired(uint64, frp.NodeID, frp.Rank) {}

func (o *Observer) TransactionClosed(stats frp.TxStats) {
	o.transactions.WithLabelValues(stats.Runtime).Inc()
	o.firings.WithLabelValues(stats.Runtime).Add(float64(stats.Firings))
	o.listeners.WithLabelValues(stats.Runtime).Add(float64(stats.Listeners))
	o.errors.WithLabelValues(stats.Runtime).Add(float64(stats.Errors))
	o.queueDepth.WithLabelValues(stats.Runtime).Set(float64(stats.MaxQueue))
	o.duration.WithLabelValues(stats.Runtime).Observe(stats.Duration.Seconds())
}
