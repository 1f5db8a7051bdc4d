// Package metrics holds the Prometheus collectors for the engine, the
// session registry and event delivery. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "matchd"

type Metrics struct {
	ordersReceived   *prometheus.CounterVec
	ordersRejected   *prometheus.CounterVec
	trades           prometheus.Counter
	tradedQuantity   prometheus.Counter
	restingOrders    *prometheus.GaugeVec
	sessionsActive   prometheus.Gauge
	eventsDelivered  *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
	codecErrors      prometheus.Counter
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ordersReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_received_total",
			Help:      "Order records received, by type tag.",
		}, []string{"type"}),
		ordersRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Orders rejected by validation, by reason.",
		}, []string{"reason"}),
		trades: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Executions between an aggressor and a resting order.",
		}),
		tradedQuantity: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traded_quantity_total",
			Help:      "Quantity executed across all trades.",
		}),
		restingOrders: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resting_orders",
			Help:      "Orders resting on the book, by side.",
		}, []string{"side"}),
		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Connected client sessions.",
		}),
		eventsDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_delivered_total",
			Help:      "Events queued for delivery to a client, by kind.",
		}, []string{"kind"}),
		deliveryFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Events that could not be delivered, by reason.",
		}, []string{"reason"}),
		codecErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codec_errors_total",
			Help:      "Connections dropped because a record could not be decoded.",
		}),
	}
}

// OrderReceived counts an inbound record by type tag. Tags other than B
// and S come from clients unchecked and share the "other" label.
func (m *Metrics) OrderReceived(tag byte) {
	if m == nil {
		return
	}
	m.ordersReceived.WithLabelValues(typeLabel(tag)).Inc()
}

func typeLabel(tag byte) string {
	switch tag {
	case 'B':
		return "B"
	case 'S':
		return "S"
	}
	return "other"
}

func (m *Metrics) OrderRejected(reason string) {
	if m == nil {
		return
	}
	m.ordersRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) Trade(quantity int32) {
	if m == nil {
		return
	}
	m.trades.Inc()
	m.tradedQuantity.Add(float64(quantity))
}

func (m *Metrics) SetResting(side string, n int) {
	if m == nil {
		return
	}
	m.restingOrders.WithLabelValues(side).Set(float64(n))
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

func (m *Metrics) EventDelivered(kind string) {
	if m == nil {
		return
	}
	m.eventsDelivered.WithLabelValues(kind).Inc()
}

func (m *Metrics) DeliveryFailed(reason string) {
	if m == nil {
		return
	}
	m.deliveryFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) CodecError() {
	if m == nil {
		return
	}
	m.codecErrors.Inc()
}
