// Package metrics exposes Prometheus counters for blackjack actions and
// settlements.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	actions        *prometheus.CounterVec
	actionLatency  *prometheus.HistogramVec
	settlements    *prometheus.CounterVec
	pointsWagered  prometheus.Counter
	pointsPaid     prometheus.Counter
	activeRounds   prometheus.Gauge
	gatewayClients prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casino",
			Subsystem: "blackjack",
			Name:      "actions_total",
			Help:      "Blackjack actions by action and outcome.",
		}, []string{"action", "outcome"}),
		actionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "casino",
			Subsystem: "blackjack",
			Name:      "action_duration_seconds",
			Help:      "Time spent applying a blackjack action, storage included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casino",
			Subsystem: "blackjack",
			Name:      "settlements_total",
			Help:      "Settled rounds by result.",
		}, []string{"result"}),
		pointsWagered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "casino",
			Subsystem: "blackjack",
			Name:      "points_wagered_total",
			Help:      "Points debited for bets and doubles.",
		}),
		pointsPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "casino",
			Subsystem: "blackjack",
			Name:      "points_paid_total",
			Help:      "Points credited by settlements.",
		}),
		activeRounds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "casino",
			Subsystem: "blackjack",
			Name:      "active_rounds",
			Help:      "Rounds started by this process and not yet settled.",
		}),
		gatewayClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "casino",
			Subsystem: "gateway",
			Name:      "connections",
			Help:      "Open WebSocket connections.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.actions,
		m.actionLatency,
		m.settlements,
		m.pointsWagered,
		m.pointsPaid,
		m.activeRounds,
		m.gatewayClients,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveAction records one action call. All methods accept a nil receiver.
func (m *Metrics) ObserveAction(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, outcome).Inc()
	m.actionLatency.WithLabelValues(action).Observe(elapsed.Seconds())
}

func (m *Metrics) RoundStarted(bet int64) {
	if m == nil {
		return
	}
	m.activeRounds.Inc()
	m.pointsWagered.Add(float64(bet))
}

func (m *Metrics) Doubled(extra int64) {
	if m == nil {
		return
	}
	m.pointsWagered.Add(float64(extra))
}

func (m *Metrics) RoundSettled(result string, payout int64) {
	if m == nil {
		return
	}
	m.activeRounds.Dec()
	m.settlements.WithLabelValues(result).Inc()
	m.pointsPaid.Add(float64(payout))
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.gatewayClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.gatewayClients.Dec()
}
