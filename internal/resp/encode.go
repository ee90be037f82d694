package resp

import (
	"fmt"
	"strconv"
	"strings"
)

// AppendFrame appends the wire encoding of f to dst.
//
// Arrays may contain any frame except another Array; a nested array yields
// ErrNestedArray and dst is returned unchanged. A nil frame encodes as Null.
func AppendFrame(dst []byte, f Frame) ([]byte, error) {
	out, err := appendFrame(dst, f, 0)
	if err != nil {
		return dst, err
	}
	return out, nil
}

// Encode returns the wire encoding of f in a new slice.
func Encode(f Frame) ([]byte, error) {
	return AppendFrame(nil, f)
}

func appendFrame(dst []byte, f Frame, depth int) ([]byte, error) {
	switch v := f.(type) {
	case Simple:
		return appendLine(dst, KindSimple, string(v))
	case Error:
		return appendLine(dst, KindError, string(v))
	case Integer:
		dst = append(dst, KindInteger)
		dst = strconv.AppendUint(dst, uint64(v), 10)
		return append(dst, '\r', '\n'), nil
	case Bulk:
		dst = append(dst, KindBulk)
		dst = strconv.AppendUint(dst, uint64(len(v)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, v...)
		return append(dst, '\r', '\n'), nil
	case Null, nil:
		return append(dst, "$-1\r\n"...), nil
	case Array:
		if depth > 0 {
			return dst, ErrNestedArray
		}
		dst = append(dst, KindArray)
		dst = strconv.AppendUint(dst, uint64(len(v)), 10)
		dst = append(dst, '\r', '\n')
		var err error
		for _, elem := range v {
			if dst, err = appendFrame(dst, elem, depth+1); err != nil {
				return dst, err
			}
		}
		return dst, nil
	default:
		return dst, fmt.Errorf("%w: unsupported frame type %T", ErrMalformed, f)
	}
}

func appendLine(dst []byte, kind byte, s string) ([]byte, error) {
	if strings.Contains(s, "\r\n") {
		return dst, fmt.Errorf("%w: %q line contains CRLF", ErrMalformed, kind)
	}
	dst = append(dst, kind)
	dst = append(dst, s...)
	return append(dst, '\r', '\n'), nil
}
