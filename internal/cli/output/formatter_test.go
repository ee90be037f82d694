package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/rudis-go/internal/resp"
)

// ============================================================================
// NewFormatter / ParseFormat
// ============================================================================

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format   Format
		wide     bool
		wantType string
	}{
		{FormatJSON, false, "json"},
		{FormatYAML, false, "yaml"},
		{FormatTable, true, "table"},
		{FormatRaw, false, "raw"},
		{FormatText, false, "text"},
		{"unknown", false, "text"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f := NewFormatter(tt.format, tt.wide)
			switch tt.wantType {
			case "json":
				if _, ok := f.(*JSONFormatter); !ok {
					t.Errorf("NewFormatter(%q) = %T, want *JSONFormatter", tt.format, f)
				}
			case "yaml":
				if _, ok := f.(*YAMLFormatter); !ok {
					t.Errorf("NewFormatter(%q) = %T, want *YAMLFormatter", tt.format, f)
				}
			case "table":
				tf, ok := f.(*TableFormatter)
				if !ok {
					t.Fatalf("NewFormatter(%q) = %T, want *TableFormatter", tt.format, f)
				}
				if tf.Wide != tt.wide {
					t.Errorf("Wide = %v, want %v", tf.Wide, tt.wide)
				}
			case "raw", "text":
				tf, ok := f.(*TextFormatter)
				if !ok {
					t.Fatalf("NewFormatter(%q) = %T, want *TextFormatter", tt.format, f)
				}
				if tf.Raw != (tt.wantType == "raw") {
					t.Errorf("Raw = %v, want %v", tf.Raw, tt.wantType == "raw")
				}
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"raw", FormatRaw, false},
		{"table", FormatTable, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// ============================================================================
// TextFormatter
// ============================================================================

func TestTextFormatter_Format(t *testing.T) {
	tests := []struct {
		name  string
		raw   bool
		frame resp.Frame
		want  string
	}{
		{"simple", false, resp.Simple("PONG"), "PONG\n"},
		{"bulk quoted", false, resp.Bulk("hi"), "\"hi\"\n"},
		{"bulk raw", true, resp.Bulk("hi"), "hi\n"},
		{"error", false, resp.Error("ERR boom"), "(error) ERR boom\n"},
		{"error raw", true, resp.Error("ERR boom"), "ERR boom\n"},
		{"null raw", true, resp.Null{}, "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := &TextFormatter{Raw: tt.raw}
			if err := f.Format(&buf, tt.frame); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Format() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestTextFormatter_FallsBackToTable(t *testing.T) {
	var buf bytes.Buffer
	f := &TextFormatter{}
	if err := f.Format(&buf, map[string]string{"server": "127.0.0.1:6379"}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "KEY") || !strings.Contains(out, "127.0.0.1:6379") {
		t.Errorf("Format() = %q, want key/value table", out)
	}
}

// ============================================================================
// JSON / YAML
// ============================================================================

func TestJSONFormatter_Format(t *testing.T) {
	f := &JSONFormatter{}

	t.Run("struct", func(t *testing.T) {
		data := struct {
			Name  string `json:"name"`
			Value int    `json:"value"`
		}{Name: "test", Value: 42}

		var buf bytes.Buffer
		if err := f.Format(&buf, data); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if got["name"] != "test" {
			t.Errorf("name = %v, want test", got["name"])
		}
	})

	t.Run("reply", func(t *testing.T) {
		frame := resp.Array{resp.Bulk("a"), resp.Integer(7), resp.Null{}, resp.Error("ERR x")}

		var buf bytes.Buffer
		if err := f.Format(&buf, frame); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		var got []any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(got) != 4 {
			t.Fatalf("len = %d, want 4", len(got))
		}
		if got[0] != "a" || got[1] != float64(7) || got[2] != nil {
			t.Errorf("got %v, want [a 7 <nil> ...]", got)
		}
		errObj, ok := got[3].(map[string]any)
		if !ok || errObj["error"] != "ERR x" {
			t.Errorf("got[3] = %v, want {error: ERR x}", got[3])
		}
	})
}

func TestYAMLFormatter_Format(t *testing.T) {
	f := &YAMLFormatter{}

	t.Run("reply", func(t *testing.T) {
		var buf bytes.Buffer
		if err := f.Format(&buf, resp.Array{resp.Simple("OK"), resp.Integer(3)}); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		var got []any
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not YAML: %v", err)
		}
		if len(got) != 2 || got[0] != "OK" || got[1] != 3 {
			t.Errorf("got %v, want [OK 3]", got)
		}
	})

	t.Run("map", func(t *testing.T) {
		var buf bytes.Buffer
		if err := f.Format(&buf, map[string]any{"output": "text"}); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if strings.TrimSpace(buf.String()) != "output: text" {
			t.Errorf("Format() = %q, want %q", buf.String(), "output: text\n")
		}
	})
}
