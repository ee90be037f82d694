package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/rudis-go/internal/resp"
)

// Format represents the output format.
type Format string

const (
	FormatText  Format = "text"
	FormatRaw   Format = "raw"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatText, FormatRaw, FormatTable, FormatJSON, FormatYAML}

// ParseFormat validates a format name. The empty string means text.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatText, nil
	}
	f := Format(strings.ToLower(s))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format, wide bool) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatRaw:
		return &TextFormatter{Raw: true}
	case FormatTable:
		return &TableFormatter{Wide: wide}
	default:
		return &TextFormatter{Wide: wide}
	}
}

// TextFormatter prints replies the way redis-cli does and falls back to a
// table for other values.
type TextFormatter struct {
	Raw  bool
	Wide bool
}

// Format writes data followed by a newline.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	frame, ok := data.(resp.Frame)
	if !ok {
		return (&TableFormatter{Wide: f.Wide}).Format(w, data)
	}
	text := FormatReply(frame)
	if f.Raw {
		text = RawReply(frame)
	}
	_, err := io.WriteString(w, text+"\n")
	return err
}
