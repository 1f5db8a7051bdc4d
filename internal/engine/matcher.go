package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/efreitasn/matchd/internal/clock"
	"github.com/efreitasn/matchd/internal/domain"
	"github.com/efreitasn/matchd/internal/metrics"
)

// Sink receives every event the engine produces, in production order.
// Emit is called with the engine lock held, so per-client ordering
// follows the order in which submissions were processed.
type Sink interface {
	Emit(ev domain.Event)
}

// PriceLimits is the inclusive band an order price must fall in.
type PriceLimits struct {
	Lower float64
	Upper float64
}

// Contains reports whether p lies in [Lower, Upper]. NaN never does.
func (l PriceLimits) Contains(p float64) bool {
	return p >= l.Lower && p <= l.Upper
}

// Depth is a point-in-time view of the top of the book.
type Depth struct {
	Bids     []PriceLevel
	Asks     []PriceLevel
	BidCount int
	AskCount int
	BestBid  *float64
	BestAsk  *float64
	Spread   *float64
}

// Engine validates incoming orders and matches them against the book.
// It is the only owner of the book; one mutex is held for the whole
// validate, match, mutate and emit sequence of an order.
type Engine struct {
	mu      sync.Mutex
	book    *Book
	limits  PriceLimits
	seq     uint64
	clock   clock.Clock
	sink    Sink
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewEngine creates an Engine with an empty book. sink and m may be nil.
func NewEngine(
	limits PriceLimits,
	clk clock.Clock,
	sink Sink,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		book:    NewBook(),
		limits:  limits,
		clock:   clk,
		sink:    sink,
		metrics: m,
		logger:  logger,
	}
}

// Limits returns the configured price band.
func (e *Engine) Limits() PriceLimits {
	return e.limits
}

// Submit runs one order through validation and matching and returns the
// events it produced, after handing each of them to the sink.
//
// A rejected order yields exactly one rejection event and leaves the book
// untouched. An accepted order yields an Accepted event, then one Fill per
// resting order it traded against, then (if anything traded) one Fill for
// the aggressor carrying the total filled quantity and its volume-weighted
// average price.
func (e *Engine) Submit(sub domain.Submission) []domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.OrderReceived(sub.Type)
	now := e.clock.Now().Unix()

	order, err := e.validate(sub, now)
	if err != nil {
		return e.emit([]domain.Event{e.reject(sub, now, err)})
	}

	// Acknowledgment precedes any execution outcome.
	events := []domain.Event{{
		Kind:     domain.EventAccepted,
		ClientID: order.ClientID,
		OrderID:  order.OrderID,
		Side:     order.Side,
		Price:    order.Price,
		Quantity: order.Quantity,
		Time:     order.Timestamp,
	}}
	events = e.match(order, events)

	e.metrics.SetResting("bid", e.book.Len(domain.SideBuy))
	e.metrics.SetResting("ask", e.book.Len(domain.SideSell))
	return e.emit(events)
}

func (e *Engine) validate(sub domain.Submission, now int64) (*domain.Order, error) {
	side, ok := domain.ParseSide(sub.Type)
	if !ok {
		return nil, &domain.ValidationError{
			Kind:    domain.RejectInvalid,
			Message: fmt.Sprintf("unknown order type %q", sub.Type),
		}
	}
	if sub.Quantity <= 0 {
		return nil, &domain.ValidationError{
			Kind:    domain.RejectInvalid,
			Message: fmt.Sprintf("quantity must be > 0, got %d", sub.Quantity),
		}
	}
	if !e.limits.Contains(sub.Price) {
		return nil, &domain.ValidationError{
			Kind:    domain.RejectOutOfRange,
			Message: fmt.Sprintf("price %v outside [%v, %v]", sub.Price, e.limits.Lower, e.limits.Upper),
		}
	}

	e.seq++
	return &domain.Order{
		ClientID:  sub.ClientID,
		OrderID:   sub.OrderID,
		Side:      side,
		Price:     sub.Price,
		Quantity:  sub.Quantity,
		Timestamp: now,
		Seq:       e.seq,
	}, nil
}

func (e *Engine) reject(sub domain.Submission, now int64, err error) domain.Event {
	kind := domain.EventRejectedInvalid
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		kind = ve.EventKind()
	}
	e.metrics.OrderRejected(kind.String())
	e.logger.Info("order rejected",
		zap.Int32("client_id", sub.ClientID),
		zap.Int32("order_id", sub.OrderID),
		zap.String("reason", kind.String()),
		zap.Error(err),
	)
	return domain.Event{
		Kind:     kind,
		ClientID: sub.ClientID,
		OrderID:  sub.OrderID,
		RawType:  sub.Type,
		Price:    sub.Price,
		Quantity: sub.Quantity,
		Time:     now,
	}
}

// match crosses order against the opposite side until it is filled, the
// side is empty, or the best resting price no longer crosses. Whatever
// remains rests on the order's own side.
func (e *Engine) match(order *domain.Order, events []domain.Event) []domain.Event {
	opposite := order.Side.Opposite()

	var filled int64
	notional := decimal.Zero

	for order.Quantity > 0 {
		resting, found := e.book.Best(opposite)
		if !found {
			break
		}
		if !order.Side.Crosses(order.Price, resting.Price) {
			break
		}

		// Execution happens at the resting order's price.
		qty := min(order.Quantity, resting.Quantity)
		price := resting.Price
		tradeID := uuid.New().String()

		order.Quantity -= qty
		resting.Quantity -= qty
		filled += int64(qty)
		notional = notional.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))))

		e.book.PopBest(opposite)
		if resting.Quantity > 0 {
			e.book.PushBackPartial(opposite, resting)
		}

		events = append(events, domain.Event{
			Kind:     domain.EventFill,
			ClientID: resting.ClientID,
			OrderID:  resting.OrderID,
			Side:     resting.Side,
			Price:    price,
			Quantity: qty,
			Time:     resting.Timestamp,
			TradeID:  tradeID,
		})

		e.metrics.Trade(qty)
		e.logger.Debug("trade",
			zap.String("trade_id", tradeID),
			zap.Int32("aggressor_client_id", order.ClientID),
			zap.Int32("aggressor_order_id", order.OrderID),
			zap.Int32("resting_client_id", resting.ClientID),
			zap.Int32("resting_order_id", resting.OrderID),
			zap.Float64("price", price),
			zap.Int32("quantity", qty),
		)
	}

	if filled > 0 {
		events = append(events, domain.Event{
			Kind:     domain.EventFill,
			ClientID: order.ClientID,
			OrderID:  order.OrderID,
			Side:     order.Side,
			Price:    averagePrice(notional, filled),
			Quantity: int32(filled),
			Time:     order.Timestamp,
		})
	}

	if order.Quantity > 0 {
		e.book.Insert(order.Side, order)
	}
	return events
}

// averagePrice returns notional / filled as a float64.
func averagePrice(notional decimal.Decimal, filled int64) float64 {
	return notional.Div(decimal.NewFromInt(filled)).InexactFloat64()
}

func (e *Engine) emit(events []domain.Event) []domain.Event {
	if e.sink != nil {
		for _, ev := range events {
			e.sink.Emit(ev)
		}
	}
	return events
}

// CancelClient removes every resting order owned by clientID and returns
// how many were removed. No events are produced; the owner is gone.
func (e *Engine) CancelClient(clientID int32) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.book.RemoveClient(clientID)
	e.metrics.SetResting("bid", e.book.Len(domain.SideBuy))
	e.metrics.SetResting("ask", e.book.Len(domain.SideSell))
	if len(removed) > 0 {
		e.logger.Info("cancelled orders of disconnected client",
			zap.Int32("client_id", clientID),
			zap.Int("orders", len(removed)),
		)
	}
	return len(removed)
}

// Depth returns up to n aggregated price levels per side.
func (e *Engine) Depth(n int) Depth {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := Depth{
		Bids:     e.book.Levels(domain.SideBuy, n),
		Asks:     e.book.Levels(domain.SideSell, n),
		BidCount: e.book.Len(domain.SideBuy),
		AskCount: e.book.Len(domain.SideSell),
	}
	if bid, ok := e.book.Best(domain.SideBuy); ok {
		p := bid.Price
		d.BestBid = &p
	}
	if ask, ok := e.book.Best(domain.SideSell); ok {
		p := ask.Price
		d.BestAsk = &p
	}
	if d.BestBid != nil && d.BestAsk != nil {
		s := *d.BestAsk - *d.BestBid
		d.Spread = &s
	}
	return d
}
