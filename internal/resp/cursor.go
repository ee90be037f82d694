package resp

import (
	"bytes"
	"fmt"
)

// Cursor is a read position over a byte slice. It never copies or modifies
// the slice.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor at position 0 of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Reset points the cursor at a new slice, position 0.
func (c *Cursor) Reset(buf []byte) {
	c.buf = buf
	c.pos = 0
}

// Position returns the number of bytes consumed so far.
func (c *Cursor) Position() int { return c.pos }

// SetPosition moves the cursor. It panics if pos is out of range.
func (c *Cursor) SetPosition(pos int) {
	if pos < 0 || pos > len(c.buf) {
		panic(fmt.Sprintf("resp: cursor position %d out of range [0,%d]", pos, len(c.buf)))
	}
	c.pos = pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

func (c *Cursor) getByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, ErrIncomplete
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// getLine returns the bytes up to the next CRLF and moves past it.
// The returned slice aliases the cursor's buffer.
func (c *Cursor) getLine() ([]byte, error) {
	rest := c.buf[c.pos:]
	i := bytes.Index(rest, crlf)
	if i < 0 {
		// A trailing CR may be the first half of the terminator.
		n := len(rest)
		if n > 0 && rest[n-1] == '\r' {
			n--
		}
		if n > MaxLineLen {
			return nil, errLineTooLong
		}
		return nil, ErrIncomplete
	}
	if i > MaxLineLen {
		return nil, errLineTooLong
	}
	c.pos += i + 2
	return rest[:i], nil
}

// take returns the next n bytes followed by a CRLF terminator.
func (c *Cursor) take(n int) ([]byte, error) {
	if c.Remaining() < n+2 {
		return nil, ErrIncomplete
	}
	payload := c.buf[c.pos : c.pos+n]
	if c.buf[c.pos+n] != '\r' || c.buf[c.pos+n+1] != '\n' {
		return nil, fmt.Errorf("%w: invalid bulk terminator", ErrMalformed)
	}
	c.pos += n + 2
	return payload, nil
}

var (
	crlf           = []byte("\r\n")
	errLineTooLong = fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, MaxLineLen)
)

// parseUint parses an unsigned decimal without allocating.
func parseUint(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("%w: empty decimal", ErrMalformed)
	}
	var n uint64
	for _, ch := range b {
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("%w: invalid decimal %q", ErrMalformed, b)
		}
		d := uint64(ch - '0')
		if n > (^uint64(0)-d)/10 {
			return 0, fmt.Errorf("%w: decimal overflows uint64", ErrMalformed)
		}
		n = n*10 + d
	}
	return n, nil
}

// isNullLen reports whether a length line is the null marker "-1".
func isNullLen(b []byte) bool {
	return len(b) == 2 && b[0] == '-' && b[1] == '1'
}

// parseLen parses a bulk or array length line. null is true for "-1".
func parseLen(b []byte, limit uint64) (n int, null bool, err error) {
	if isNullLen(b) {
		return 0, true, nil
	}
	if len(b) > 0 && b[0] == '-' {
		return 0, false, fmt.Errorf("%w: invalid length %q", ErrMalformed, b)
	}
	v, err := parseUint(b)
	if err != nil {
		return 0, false, err
	}
	if v > limit {
		return 0, false, fmt.Errorf("%w: length %d exceeds %d", ErrLimitExceeded, v, limit)
	}
	return int(v), false, nil
}
