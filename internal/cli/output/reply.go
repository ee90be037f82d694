package output

import (
	"strconv"
	"strings"

	"github.com/yndnr/rudis-go/internal/resp"
)

// FormatReply renders a reply like redis-cli: bulk strings quoted, errors and
// integers tagged, arrays numbered.
func FormatReply(f resp.Frame) string {
	var b strings.Builder
	writeReply(&b, f, "")
	return b.String()
}

func writeReply(b *strings.Builder, f resp.Frame, indent string) {
	switch v := f.(type) {
	case nil, resp.Null:
		b.WriteString("(nil)")
	case resp.Simple:
		b.WriteString(string(v))
	case resp.Error:
		b.WriteString("(error) ")
		b.WriteString(string(v))
	case resp.Integer:
		b.WriteString("(integer) ")
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case resp.Bulk:
		b.WriteString(strconv.Quote(string(v)))
	case resp.Array:
		if len(v) == 0 {
			b.WriteString("(empty array)")
			return
		}
		width := len(strconv.Itoa(len(v)))
		for i, elem := range v {
			if i > 0 {
				b.WriteByte('\n')
				b.WriteString(indent)
			}
			label := strconv.Itoa(i + 1)
			b.WriteString(strings.Repeat(" ", width-len(label)))
			b.WriteString(label)
			b.WriteString(") ")
			writeReply(b, elem, indent+strings.Repeat(" ", width+2))
		}
	default:
		b.WriteString(f.String())
	}
}

// RawReply renders a reply without quoting or type tags, one array element
// per line.
func RawReply(f resp.Frame) string {
	switch v := f.(type) {
	case nil, resp.Null:
		return ""
	case resp.Simple:
		return string(v)
	case resp.Error:
		return string(v)
	case resp.Integer:
		return strconv.FormatUint(uint64(v), 10)
	case resp.Bulk:
		return string(v)
	case resp.Array:
		lines := make([]string, len(v))
		for i, elem := range v {
			lines[i] = RawReply(elem)
		}
		return strings.Join(lines, "\n")
	default:
		return f.String()
	}
}

// ToValue converts a reply to plain Go values for JSON and YAML encoding.
// Errors become {"error": message}.
func ToValue(f resp.Frame) any {
	switch v := f.(type) {
	case nil, resp.Null:
		return nil
	case resp.Simple:
		return string(v)
	case resp.Error:
		return map[string]string{"error": string(v)}
	case resp.Integer:
		return uint64(v)
	case resp.Bulk:
		return string(v)
	case resp.Array:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = ToValue(elem)
		}
		return out
	default:
		return f.String()
	}
}
