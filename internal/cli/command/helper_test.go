package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/rudis-go/internal/server/redisserver"
	"github.com/yndnr/rudis-go/internal/telemetry/logger"
)

// startServer runs a server on an ephemeral port for the duration of the test.
func startServer(t *testing.T) string {
	t.Helper()
	s := redisserver.New(&redisserver.Config{
		Host:        "127.0.0.1",
		Port:        0,
		PollTimeout: 10 * time.Millisecond,
	}, redisserver.WithLogger(logger.Nop()))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s.Addr().String()
}

// isolate clears RUDIS_* variables and returns a config path in a temp dir
// whose history file also lives there.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"RUDIS_SERVER", "RUDIS_OUTPUT", "RUDIS_TIMEOUT"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "cli.yaml")
	content := "history_file: " + filepath.Join(dir, "history") + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

type runResult struct {
	out    string
	errOut string
	err    error
}

// runApp runs rudis-cli with args and stdin, capturing both output streams.
func runApp(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)

	err := app.Run(append([]string{"rudis-cli"}, args...))
	return runResult{out: out.String(), errOut: errOut.String(), err: err}
}
