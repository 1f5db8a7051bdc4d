package domain

import "fmt"

// Side indicates whether an order buys or sells. The values are the wire
// type tags used by clients on submission.
type Side byte

const (
	SideBuy  Side = 'B'
	SideSell Side = 'S'
)

// ParseSide maps a raw type tag to a Side. It returns false for anything
// other than 'B' or 'S'.
func ParseSide(tag byte) (Side, bool) {
	switch Side(tag) {
	case SideBuy, SideSell:
		return Side(tag), true
	}
	return 0, false
}

// Opposite returns the side an order of this side trades against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Crosses reports whether an aggressor on side s with the given limit
// price can trade against a resting order priced at resting. Touching
// prices cross.
func (s Side) Crosses(limit, resting float64) bool {
	if s == SideBuy {
		return resting <= limit
	}
	return resting >= limit
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	}
	return fmt.Sprintf("side(%q)", byte(s))
}

// Submission is a decoded inbound order record before validation. Type is
// kept raw so that unknown tags can be echoed back in a rejection.
type Submission struct {
	ClientID int32
	OrderID  int32
	Type     byte
	Price    float64
	Quantity int32
}

// Order is an accepted order. Everything but Quantity is fixed once the
// order is created; Quantity is the remaining quantity and shrinks as
// fills consume it.
type Order struct {
	ClientID  int32
	OrderID   int32
	Side      Side
	Price     float64
	Quantity  int32
	Timestamp int64  // unix seconds, assigned on acceptance
	Seq       uint64 // submission number, breaks timestamp ties
}
