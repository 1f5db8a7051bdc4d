package wire

import "github.com/efreitasn/matchd/internal/domain"

// ToSubmission turns an inbound record into a submission for the engine.
// The client id and time fields sent by the client are ignored; the
// server owns both.
func ToSubmission(clientID int32, r Record) domain.Submission {
	return domain.Submission{
		ClientID: clientID,
		OrderID:  r.OrderID,
		Type:     r.Type,
		Price:    r.Price,
		Quantity: r.Quantity,
	}
}

// FromEvent flattens an event into its wire record.
func FromEvent(ev domain.Event) Record {
	r := Record{
		ClientID: ev.ClientID,
		OrderID:  ev.OrderID,
		Price:    ev.Price,
		Quantity: ev.Quantity,
		Time:     ev.Time,
	}
	switch ev.Kind {
	case domain.EventWelcome:
		r.Type = TagWelcome
	case domain.EventAccepted:
		r.Type = TagAccepted
	case domain.EventRejectedInvalid:
		r.Type = TagInvalid
	case domain.EventRejectedOutOfRange:
		r.Type = TagOutOfRange
	case domain.EventFill:
		r.Type = byte(ev.Side)
	}
	return r
}

// EncodeEvent is shorthand for Encode(FromEvent(ev)).
func EncodeEvent(ev domain.Event) []byte {
	return Encode(FromEvent(ev))
}
