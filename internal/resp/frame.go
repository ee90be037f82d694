package resp

import (
	"strconv"
	"strings"
)

// Frame is one RESP value. The concrete types are Simple, Error, Integer,
// Bulk, Null and Array.
type Frame interface {
	// Kind returns the type byte that introduces the frame on the wire.
	Kind() byte
	String() string
}

// Type bytes.
const (
	KindSimple  byte = '+'
	KindError   byte = '-'
	KindInteger byte = ':'
	KindBulk    byte = '$'
	KindArray   byte = '*'
)

// Simple is a status reply such as "OK" or "PONG".
type Simple string

// Error is an error reply. The text is sent verbatim after '-'.
type Error string

// Integer is an unsigned 64-bit integer reply.
type Integer uint64

// Bulk is a binary-safe string.
type Bulk []byte

// Null is the absent value, encoded as a bulk of length -1.
type Null struct{}

// Array is an ordered list of frames.
type Array []Frame

func (Simple) Kind() byte  { return KindSimple }
func (Error) Kind() byte   { return KindError }
func (Integer) Kind() byte { return KindInteger }
func (Bulk) Kind() byte    { return KindBulk }
func (Null) Kind() byte    { return KindBulk }
func (Array) Kind() byte   { return KindArray }

func (s Simple) String() string  { return string(s) }
func (e Error) String() string   { return "error: " + string(e) }
func (i Integer) String() string { return strconv.FormatUint(uint64(i), 10) }
func (b Bulk) String() string    { return string(b) }
func (Null) String() string      { return "(nil)" }

func (a Array) String() string {
	parts := make([]string, 0, len(a))
	for _, f := range a {
		if f == nil {
			parts = append(parts, "(nil)")
			continue
		}
		parts = append(parts, f.String())
	}
	return strings.Join(parts, " ")
}

// Error implements the error interface so an Error reply can be returned
// directly by clients.
func (e Error) Error() string { return string(e) }

// Command builds a request array of bulk strings.
func Command(args ...string) Array {
	out := make(Array, 0, len(args))
	for _, a := range args {
		out = append(out, Bulk(a))
	}
	return out
}

// CommandBytes is Command for raw byte arguments.
func CommandBytes(args ...[]byte) Array {
	out := make(Array, 0, len(args))
	for _, a := range args {
		out = append(out, Bulk(a))
	}
	return out
}
