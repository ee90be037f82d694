package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/rudis-go/internal/resp"
)

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

// Format formats data as YAML. Replies are converted with ToValue.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	if frame, ok := data.(resp.Frame); ok {
		data = ToValue(frame)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}
