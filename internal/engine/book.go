package engine

import (
	"github.com/efreitasn/matchd/internal/domain"
	"github.com/google/btree"
)

// PriceLevel represents an aggregated price level in the order book.
type PriceLevel struct {
	Price         float64 `json:"price"`
	TotalQuantity int64   `json:"total_quantity"`
	OrderCount    int     `json:"order_count"`
}

// bidLess defines ordering for the bid side: price descending, then
// timestamp ascending, then submission sequence ascending. Min() returns
// the best bid.
func bidLess(a, b *domain.Order) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.Seq < b.Seq
}

// askLess defines ordering for the ask side: price ascending, then
// timestamp ascending, then submission sequence ascending. Min() returns
// the best ask.
func askLess(a, b *domain.Order) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.Seq < b.Seq
}

// Book holds the resting orders of the single instrument. It is not safe
// for concurrent use; the Engine serializes all access.
type Book struct {
	bids *btree.BTreeG[*domain.Order]
	asks *btree.BTreeG[*domain.Order]
}

// NewBook creates an empty book.
func NewBook() *Book {
	const degree = 32
	return &Book{
		bids: btree.NewG[*domain.Order](degree, bidLess),
		asks: btree.NewG[*domain.Order](degree, askLess),
	}
}

func (b *Book) side(s domain.Side) *btree.BTreeG[*domain.Order] {
	if s == domain.SideBuy {
		return b.bids
	}
	return b.asks
}

// Best returns the highest-priority order on a side without removing it.
func (b *Book) Best(s domain.Side) (*domain.Order, bool) {
	return b.side(s).Min()
}

// PopBest removes and returns the highest-priority order on a side.
func (b *Book) PopBest(s domain.Side) (*domain.Order, bool) {
	return b.side(s).DeleteMin()
}

// Insert admits an order to a side according to its ranking.
func (b *Book) Insert(s domain.Side, o *domain.Order) {
	b.side(s).ReplaceOrInsert(o)
}

// PushBackPartial re-inserts a resting order whose quantity was partially
// consumed. Its timestamp and sequence are untouched, so it goes back to
// the front of its price level.
func (b *Book) PushBackPartial(s domain.Side, o *domain.Order) {
	b.side(s).ReplaceOrInsert(o)
}

// Len returns the number of orders resting on a side.
func (b *Book) Len(s domain.Side) int {
	return b.side(s).Len()
}

// Walk iterates a side in priority order. The callback returns false to
// stop.
func (b *Book) Walk(s domain.Side, fn func(*domain.Order) bool) {
	b.side(s).Ascend(fn)
}

// Levels returns up to n aggregated price levels from a side, best first.
func (b *Book) Levels(s domain.Side, n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	b.side(s).Ascend(func(o *domain.Order) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price == o.Price {
			levels[len(levels)-1].TotalQuantity += int64(o.Quantity)
			levels[len(levels)-1].OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:         o.Price,
			TotalQuantity: int64(o.Quantity),
			OrderCount:    1,
		})
		return true
	})
	return levels
}

// RemoveClient deletes every resting order owned by clientID from both
// sides and returns them.
func (b *Book) RemoveClient(clientID int32) []*domain.Order {
	var removed []*domain.Order
	for _, tree := range []*btree.BTreeG[*domain.Order]{b.bids, b.asks} {
		var owned []*domain.Order
		tree.Ascend(func(o *domain.Order) bool {
			if o.ClientID == clientID {
				owned = append(owned, o)
			}
			return true
		})
		for _, o := range owned {
			tree.Delete(o)
		}
		removed = append(removed, owned...)
	}
	return removed
}
