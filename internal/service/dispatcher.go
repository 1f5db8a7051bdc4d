package service

import (
	"errors"

	"go.uber.org/zap"

	"github.com/efreitasn/matchd/internal/domain"
	"github.com/efreitasn/matchd/internal/metrics"
)

// Deliverer hands an event to the channel of one client.
type Deliverer interface {
	Deliver(clientID int32, ev domain.Event) error
}

// Dispatcher routes engine events to the addressed client. It implements
// engine.Sink.
//
// A delivery failure is reported and counted, never retried, and never
// rolls back the trade that produced the event.
type Dispatcher struct {
	sessions Deliverer
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher delivering through sessions.
func NewDispatcher(sessions Deliverer, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sessions: sessions,
		metrics:  m,
		logger:   logger,
	}
}

// Emit delivers ev to ev.ClientID.
func (d *Dispatcher) Emit(ev domain.Event) {
	err := d.sessions.Deliver(ev.ClientID, ev)
	if err == nil {
		d.metrics.EventDelivered(ev.Kind.String())
		return
	}

	reason := "write_error"
	switch {
	case errors.Is(err, domain.ErrUnknownClient):
		reason = "unknown_client"
	case errors.Is(err, domain.ErrSlowConsumer):
		reason = "slow_consumer"
	}
	d.metrics.DeliveryFailed(reason)

	fields := []zap.Field{
		zap.Int32("client_id", ev.ClientID),
		zap.Int32("order_id", ev.OrderID),
		zap.String("kind", ev.Kind.String()),
		zap.String("reason", reason),
		zap.Error(err),
	}
	if ev.TradeID != "" {
		fields = append(fields, zap.String("trade_id", ev.TradeID))
	}
	d.logger.Warn("event delivery failed", fields...)
}
