package output

import (
	"encoding/json"
	"io"

	"github.com/yndnr/rudis-go/internal/resp"
)

// JSONFormatter formats data as JSON.
type JSONFormatter struct{}

// Format formats data as indented JSON. Replies are converted with ToValue.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	if frame, ok := data.(resp.Frame); ok {
		data = ToValue(frame)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
