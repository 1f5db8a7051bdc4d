package domain

import "errors"

// Sentinel errors for delivery failures. They are reported and logged but
// never undo a trade that was already applied to the book.
var (
	ErrUnknownClient = errors.New("unknown_client")
	ErrSlowConsumer  = errors.New("slow_consumer")
)

// RejectKind classifies why an order failed validation.
type RejectKind uint8

const (
	RejectInvalid RejectKind = iota + 1
	RejectOutOfRange
)

// ValidationError represents an order that failed validation.
type ValidationError struct {
	Kind    RejectKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// EventKind returns the rejection event kind for this error.
func (e *ValidationError) EventKind() EventKind {
	if e.Kind == RejectOutOfRange {
		return EventRejectedOutOfRange
	}
	return EventRejectedInvalid
}
