package repl

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"spaces only", "   \t ", nil, false},
		{"plain", "PING", []string{"PING"}, false},
		{"multiple spaces", "  ECHO   a  b ", []string{"ECHO", "a", "b"}, false},
		{"double quoted", `ECHO "hello world"`, []string{"ECHO", "hello world"}, false},
		{"single quoted", `ECHO 'it''s'`, nil, true},
		{"single escaped quote", `ECHO 'it\'s'`, []string{"ECHO", "it's"}, false},
		{"single keeps backslash", `ECHO 'a\nb'`, []string{"ECHO", `a\nb`}, false},
		{"escapes", `ECHO "a\nb\t\"c\""`, []string{"ECHO", "a\nb\t\"c\""}, false},
		{"hex", `ECHO "\x41\x00z"`, []string{"ECHO", "A\x00z"}, false},
		{"empty quoted", `ECHO ""`, []string{"ECHO", ""}, false},
		{"quote inside token", `a"b c"d`, nil, true},
		{"quote joins token", `a"b c"`, []string{"ab c"}, false},
		{"unterminated double", `ECHO "abc`, nil, true},
		{"unterminated single", `ECHO 'abc`, nil, true},
		{"trailing backslash", `ECHO "abc\`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitArgs(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUnbalancedQuotes) {
					t.Errorf("error = %v, want ErrUnbalancedQuotes", err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitArgs(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}
