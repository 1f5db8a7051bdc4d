package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OrderReceived('B')
	m.OrderReceived('B')
	m.OrderRejected("out_of_range")
	m.Trade(3)
	m.Trade(2)
	m.SetResting("bid", 4)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.DeliveryFailed("unknown_client")
	m.CodecError()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersReceived.WithLabelValues("B")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersRejected.WithLabelValues("out_of_range")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.trades))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.tradedQuantity))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.restingOrders.WithLabelValues("bid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveryFailures.WithLabelValues("unknown_client")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.codecErrors))
}

func TestOrderReceived_UnknownTagsShareLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OrderReceived('S')
	for _, tag := range []byte{'Z', 0, '\n', 0xff, 'b'} {
		m.OrderReceived(tag)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersReceived.WithLabelValues("S")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ordersReceived.WithLabelValues("other")))
	count, err := testutil.GatherAndCount(reg, "matchd_orders_received_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderReceived('S')
		m.OrderRejected("invalid")
		m.Trade(1)
		m.SetResting("ask", 1)
		m.SessionOpened()
		m.SessionClosed()
		m.EventDelivered("fill")
		m.DeliveryFailed("slow_consumer")
		m.CodecError()
	})
}
