package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_order_transitions_total",
		Help: "Total number of persisted order status transitions.",
	},
		[]string{"actor", "status"},
	)

	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_orders_created_total",
		Help: "Total number of orders placed at checkout.",
	},
		[]string{"status"},
	)

	ClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_claims_total",
		Help: "Total number of courier claim attempts by result.",
	},
		[]string{"result"},
	)

	RouteFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_route_fallbacks_total",
		Help: "Total number of route estimates that fell back to the fixed ETA.",
	})

	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_realtime_clients",
		Help: "Current number of connected websocket clients.",
	})

	RealtimeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_realtime_events_total",
		Help: "Total number of realtime event deliveries by result.",
	},
		[]string{"event", "result"},
	)

	RetentionDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_retention_deleted_total",
		Help: "Total number of orders removed by the retention sweep.",
	})
)

// Результаты claim
const (
	ClaimWon      = "won"
	ClaimRepeated = "repeated"
	ClaimConflict = "conflict"
)

// HubMetrics передает метрики realtime хаба в prometheus
type HubMetrics struct{}

func (HubMetrics) ClientsChanged(n int) {
	RealtimeClients.Set(float64(n))
}

func (HubMetrics) EventDelivered(event string) {
	RealtimeEventsTotal.WithLabelValues(event, "delivered").Inc()
}

func (HubMetrics) EventDropped(event string) {
	RealtimeEventsTotal.WithLabelValues(event, "dropped").Inc()
}
