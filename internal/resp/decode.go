package resp

import (
	"fmt"
	"unicode/utf8"
)

var errTooDeep = fmt.Errorf("%w: arrays nested deeper than %d", ErrLimitExceeded, MaxNestingDepth)

// Check reports whether a whole frame is available at the cursor.
//
// It returns nil when Decode will succeed from the same starting position,
// ErrIncomplete when more bytes are needed, or an error matching ErrMalformed
// when the input can never form a valid frame. Check does not allocate and
// leaves the underlying buffer untouched; only the cursor position moves.
func Check(c *Cursor) error {
	return check(c, 0)
}

func check(c *Cursor, depth int) error {
	kind, err := c.getByte()
	if err != nil {
		return err
	}

	switch kind {
	case KindSimple, KindError:
		line, err := c.getLine()
		if err != nil {
			return err
		}
		if !utf8.Valid(line) {
			return fmt.Errorf("%w: invalid utf-8 in %q line", ErrMalformed, kind)
		}
		return nil

	case KindInteger:
		line, err := c.getLine()
		if err != nil {
			return err
		}
		_, err = parseUint(line)
		return err

	case KindBulk:
		line, err := c.getLine()
		if err != nil {
			return err
		}
		n, null, err := parseLen(line, MaxBulkLen)
		if err != nil || null {
			return err
		}
		_, err = c.take(n)
		return err

	case KindArray:
		line, err := c.getLine()
		if err != nil {
			return err
		}
		n, null, err := parseLen(line, MaxArrayLen)
		if err != nil || null {
			return err
		}
		if depth >= MaxNestingDepth {
			return errTooDeep
		}
		for i := 0; i < n; i++ {
			if err := check(c, depth+1); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: invalid type byte %q", ErrMalformed, kind)
	}
}

// Decode materializes the frame at the cursor and advances past it.
//
// Callers are expected to run Check first; Decode still reports the same
// errors if they did not. Bulk payloads are copied, so the returned frame does
// not alias the cursor's buffer.
func Decode(c *Cursor) (Frame, error) {
	return decode(c, 0)
}

func decode(c *Cursor, depth int) (Frame, error) {
	kind, err := c.getByte()
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindSimple, KindError:
		line, err := c.getLine()
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(line) {
			return nil, fmt.Errorf("%w: invalid utf-8 in %q line", ErrMalformed, kind)
		}
		if kind == KindError {
			return Error(line), nil
		}
		return Simple(line), nil

	case KindInteger:
		line, err := c.getLine()
		if err != nil {
			return nil, err
		}
		n, err := parseUint(line)
		if err != nil {
			return nil, err
		}
		return Integer(n), nil

	case KindBulk:
		line, err := c.getLine()
		if err != nil {
			return nil, err
		}
		n, null, err := parseLen(line, MaxBulkLen)
		if err != nil {
			return nil, err
		}
		if null {
			return Null{}, nil
		}
		payload, err := c.take(n)
		if err != nil {
			return nil, err
		}
		out := make([]byte, n)
		copy(out, payload)
		return Bulk(out), nil

	case KindArray:
		line, err := c.getLine()
		if err != nil {
			return nil, err
		}
		n, null, err := parseLen(line, MaxArrayLen)
		if err != nil {
			return nil, err
		}
		if null {
			return Null{}, nil
		}
		if depth >= MaxNestingDepth {
			return nil, errTooDeep
		}
		out := make(Array, 0, n)
		for i := 0; i < n; i++ {
			f, err := decode(c, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: invalid type byte %q", ErrMalformed, kind)
	}
}

// Parse checks and decodes one frame from the start of buf. It returns the
// frame and the number of bytes it occupied.
func Parse(buf []byte) (Frame, int, error) {
	c := NewCursor(buf)
	if err := Check(c); err != nil {
		return nil, 0, err
	}
	c.SetPosition(0)
	f, err := Decode(c)
	if err != nil {
		return nil, 0, err
	}
	return f, c.Position(), nil
}
