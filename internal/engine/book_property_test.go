package engine

import (
	"fmt"
	"testing"

	"github.com/efreitasn/matchd/internal/domain"
	"pgregory.net/rapid"
)

// genOrder generates a resting order with constrained values. Prices and
// timestamps come from small ranges to force ties.
func genOrder(side domain.Side, seq uint64) *rapid.Generator[*domain.Order] {
	return rapid.Custom(func(t *rapid.T) *domain.Order {
		ticks := rapid.IntRange(10, 100).Draw(t, "ticks")
		return &domain.Order{
			ClientID:  1,
			OrderID:   int32(seq),
			Side:      side,
			Price:     float64(ticks) / 10,
			Quantity:  1,
			Timestamp: int64(rapid.IntRange(0, 5).Draw(t, "ts")),
			Seq:       seq,
		}
	})
}

func checkSorted(t *rapid.T, b *Book, side domain.Side) {
	var prev *domain.Order
	b.Walk(side, func(o *domain.Order) bool {
		if prev != nil {
			better := o.Price > prev.Price
			if side == domain.SideSell {
				better = o.Price < prev.Price
			}
			if better {
				t.Fatalf("%s side: price %v ranked after %v", side, o.Price, prev.Price)
			}
			if o.Price == prev.Price {
				if o.Timestamp < prev.Timestamp {
					t.Fatalf("%s side: same price %v, timestamp %d after %d", side, o.Price, o.Timestamp, prev.Timestamp)
				}
				if o.Timestamp == prev.Timestamp && o.Seq < prev.Seq {
					t.Fatalf("%s side: same price and time, seq %d after %d", side, o.Seq, prev.Seq)
				}
			}
		}
		prev = o
		return true
	})
}

func TestProperty_BookSortingInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(t, "numOrders")
		b := NewBook()
		for i := 0; i < n; i++ {
			side := domain.SideBuy
			if rapid.Bool().Draw(t, fmt.Sprintf("sell-%d", i)) {
				side = domain.SideSell
			}
			b.Insert(side, genOrder(side, uint64(i+1)).Draw(t, fmt.Sprintf("order-%d", i)))
		}
		checkSorted(t, b, domain.SideBuy)
		checkSorted(t, b, domain.SideSell)
	})
}

func TestProperty_PushBackPartialKeepsPosition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(t, "numOrders")
		b := NewBook()
		for i := 0; i < n; i++ {
			o := genOrder(domain.SideSell, uint64(i+1)).Draw(t, fmt.Sprintf("ask-%d", i))
			o.Quantity = 10
			b.Insert(domain.SideSell, o)
		}

		best, _ := b.PopBest(domain.SideSell)
		ts, seq := best.Timestamp, best.Seq
		best.Quantity -= int32(rapid.IntRange(1, 9).Draw(t, "consumed"))
		b.PushBackPartial(domain.SideSell, best)

		again, _ := b.Best(domain.SideSell)
		if again != best {
			t.Fatalf("expected partially filled order back at the front, got seq %d", again.Seq)
		}
		if again.Timestamp != ts || again.Seq != seq {
			t.Fatalf("priority keys changed: (%d,%d) -> (%d,%d)", ts, seq, again.Timestamp, again.Seq)
		}
		if b.Len(domain.SideSell) != n {
			t.Fatalf("expected %d asks, got %d", n, b.Len(domain.SideSell))
		}
	})
}
