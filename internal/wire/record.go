// Package wire implements the fixed-size binary record exchanged with
// clients. Every message in either direction is exactly RecordSize bytes:
//
//	offset size field
//	0      1    version (Version)
//	1      4    client id     int32   big-endian
//	5      4    order id      int32   big-endian
//	9      1    type tag
//	10     8    price         float64 IEEE-754, big-endian
//	18     4    quantity      int32   big-endian
//	22     8    time          int64   unix seconds, big-endian
//
// There is no length prefix; a reader that loses a record boundary cannot
// resynchronise, so every decoding failure is fatal to the connection.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	Version    byte = 1
	RecordSize      = 30
)

// Type tags carried in the record.
const (
	TagBuy        byte = 'B'
	TagSell       byte = 'S'
	TagAccepted   byte = 'A'
	TagInvalid    byte = 'X'
	TagOutOfRange byte = 'O'
	TagWelcome    byte = 'W'
)

// Record is the flat wire shape of an order or an event.
type Record struct {
	ClientID int32
	OrderID  int32
	Type     byte
	Price    float64
	Quantity int32
	Time     int64
}

// CodecError reports a record that cannot be decoded.
type CodecError struct {
	Reason string
	Err    error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return "wire: " + e.Reason + ": " + e.Err.Error()
	}
	return "wire: " + e.Reason
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// AppendRecord appends the encoding of r to dst.
func AppendRecord(dst []byte, r Record) []byte {
	dst = append(dst, Version)
	dst = binary.BigEndian.AppendUint32(dst, uint32(r.ClientID))
	dst = binary.BigEndian.AppendUint32(dst, uint32(r.OrderID))
	dst = append(dst, r.Type)
	dst = binary.BigEndian.AppendUint64(dst, math.Float64bits(r.Price))
	dst = binary.BigEndian.AppendUint32(dst, uint32(r.Quantity))
	dst = binary.BigEndian.AppendUint64(dst, uint64(r.Time))
	return dst
}

// Encode returns the RecordSize-byte encoding of r.
func Encode(r Record) []byte {
	return AppendRecord(make([]byte, 0, RecordSize), r)
}

// Decode parses exactly one record. An unknown type tag is not an error
// here; validation rejects it.
func Decode(b []byte) (Record, error) {
	if len(b) != RecordSize {
		return Record{}, &CodecError{Reason: fmt.Sprintf("record is %d bytes, want %d", len(b), RecordSize)}
	}
	if b[0] != Version {
		return Record{}, &CodecError{Reason: fmt.Sprintf("unsupported version %d", b[0])}
	}
	return Record{
		ClientID: int32(binary.BigEndian.Uint32(b[1:5])),
		OrderID:  int32(binary.BigEndian.Uint32(b[5:9])),
		Type:     b[9],
		Price:    math.Float64frombits(binary.BigEndian.Uint64(b[10:18])),
		Quantity: int32(binary.BigEndian.Uint32(b[18:22])),
		Time:     int64(binary.BigEndian.Uint64(b[22:30])),
	}, nil
}

// ReadRecord reads one record from r. It returns io.EOF only when the
// stream ends cleanly on a record boundary.
func ReadRecord(r io.Reader) (Record, error) {
	var buf [RecordSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, &CodecError{Reason: "truncated record", Err: err}
		}
		return Record{}, err
	}
	return Decode(buf[:])
}
