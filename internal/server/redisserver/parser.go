package redisserver

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/yndnr/rudis-go/internal/resp"
)

// Parser walks the elements of a request array.
type Parser struct {
	fields resp.Array
	pos    int
}

// NewParser returns a parser over frame, which must be an Array.
func NewParser(frame resp.Frame) (*Parser, error) {
	arr, ok := frame.(resp.Array)
	if !ok {
		return nil, fmt.Errorf("%w: expected array frame, got %T", ErrProtocol, frame)
	}
	return &Parser{fields: arr}, nil
}

// Remaining returns the number of unread elements.
func (p *Parser) Remaining() int { return len(p.fields) - p.pos }

func (p *Parser) next() (resp.Frame, error) {
	if p.pos >= len(p.fields) {
		return nil, ErrEndOfStream
	}
	f := p.fields[p.pos]
	p.pos++
	return f, nil
}

// NextString returns the next element as text. Simple and Bulk frames are
// accepted; a Bulk must be valid UTF-8.
func (p *Parser) NextString() (string, error) {
	f, err := p.next()
	if err != nil {
		return "", err
	}
	switch v := f.(type) {
	case resp.Simple:
		return string(v), nil
	case resp.Bulk:
		if !utf8.Valid(v) {
			return "", fmt.Errorf("%w: invalid utf-8 string", ErrProtocol)
		}
		return string(v), nil
	default:
		return "", fmt.Errorf("%w: expected simple or bulk frame, got %T", ErrProtocol, f)
	}
}

// NextBytes returns the next element as raw bytes.
func (p *Parser) NextBytes() ([]byte, error) {
	f, err := p.next()
	if err != nil {
		return nil, err
	}
	switch v := f.(type) {
	case resp.Simple:
		return []byte(v), nil
	case resp.Bulk:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: expected simple or bulk frame, got %T", ErrProtocol, f)
	}
}

// NextInteger returns the next element as an unsigned integer. Integer frames
// and decimal Simple or Bulk frames are accepted.
func (p *Parser) NextInteger() (uint64, error) {
	f, err := p.next()
	if err != nil {
		return 0, err
	}
	var text string
	switch v := f.(type) {
	case resp.Integer:
		return uint64(v), nil
	case resp.Simple:
		text = string(v)
	case resp.Bulk:
		text = string(v)
	default:
		return 0, fmt.Errorf("%w: expected integer frame, got %T", ErrProtocol, f)
	}
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid integer %q", ErrProtocol, text)
	}
	return n, nil
}

// Finish reports an error if any element was left unread.
func (p *Parser) Finish() error {
	if n := p.Remaining(); n > 0 {
		return fmt.Errorf("%w: %d unparsed", ErrTrailingFields, n)
	}
	return nil
}
