package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the relay counters served at /metrics. A nil
// *Metrics is valid and turns every increment into a no-op, so code
// paths never need to branch on whether metrics are enabled.
type Metrics struct {
	authRejected     prometheus.Counter
	signalsCreated   prometheus.Counter
	signalsDelivered prometheus.Counter
	historyUpserted  prometheus.Counter
	historyFailed    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		authRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "mtagent_auth_rejected_total",
			Help: "Requests rejected by bearer token checks",
		}),
		signalsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "mtagent_signals_created_total",
			Help: "Signals accepted from the admin",
		}),
		signalsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "mtagent_signals_delivered_total",
			Help: "Fresh signals returned to polling clients",
		}),
		historyUpserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mtagent_history_rows_upserted_total",
			Help: "Deal history rows upserted",
		}),
		historyFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mtagent_history_rows_failed_total",
			Help: "Deal history rows rejected or failed to persist",
		}),
	}
}

func (m *Metrics) IncAuthRejected() {
	if m == nil {
		return
	}
	m.authRejected.Inc()
}

func (m *Metrics) IncSignalsCreated() {
	if m == nil {
		return
	}
	m.signalsCreated.Inc()
}

func (m *Metrics) AddSignalsDelivered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.signalsDelivered.Add(float64(n))
}

func (m *Metrics) AddHistoryUpserted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.historyUpserted.Add(float64(n))
}

func (m *Metrics) AddHistoryFailed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.historyFailed.Add(float64(n))
}

// Handler serves the Prometheus text exposition endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
