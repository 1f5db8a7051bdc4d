package domain

// EventKind tags the variant carried by an Event.
type EventKind uint8

const (
	EventWelcome EventKind = iota + 1
	EventAccepted
	EventRejectedInvalid
	EventRejectedOutOfRange
	EventFill
)

func (k EventKind) String() string {
	switch k {
	case EventWelcome:
		return "welcome"
	case EventAccepted:
		return "accepted"
	case EventRejectedInvalid:
		return "rejected_invalid"
	case EventRejectedOutOfRange:
		return "rejected_out_of_range"
	case EventFill:
		return "fill"
	}
	return "unknown"
}

// Event is an outbound notification addressed to one client.
//
// Field use depends on Kind:
//   - Welcome: ClientID and Time only.
//   - Accepted: echoes the accepted order.
//   - RejectedInvalid, RejectedOutOfRange: echo the submitted record, with
//     RawType holding the tag the client sent.
//   - Fill: Side is the recipient order's side, Quantity the filled amount
//     and Price the trade price (or the average price for an aggressor).
type Event struct {
	Kind     EventKind
	ClientID int32
	OrderID  int32
	Side     Side
	RawType  byte
	Price    float64
	Quantity int32
	Time     int64

	// TradeID correlates the fills of one execution in logs. It never
	// goes on the wire.
	TradeID string
}

// Welcome builds the event sent to a client right after it connects.
func Welcome(clientID int32, now int64) Event {
	return Event{Kind: EventWelcome, ClientID: clientID, Time: now}
}
