package command

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/yndnr/rudis-go/internal/cli/config"
)

func TestConnect_SaveAndUse(t *testing.T) {
	addr := startServer(t)
	other := startServer(t)
	cfg := isolate(t)

	res := runApp(t, "", "--config", cfg, "connect", "--name", "local", addr)
	if res.err != nil {
		t.Fatalf("connect error = %v", res.err)
	}
	if !strings.Contains(res.out, "Connected to "+addr) || !strings.Contains(res.out, `Saved connection "local"`) {
		t.Errorf("connect output = %q", res.out)
	}

	res = runApp(t, "", "--config", cfg, "connect", "-n", "other", other)
	if res.err != nil {
		t.Fatalf("connect error = %v", res.err)
	}

	saved, err := config.Load(cfg)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if saved.CurrentConnection != "other" || saved.Connections["local"].Server != addr {
		t.Errorf("saved config = %+v", saved)
	}
	if saved.HistoryFile == "" {
		t.Error("connect should keep unrelated settings")
	}

	res = runApp(t, "", "--config", cfg, "use", "local")
	if res.err != nil {
		t.Fatalf("use error = %v", res.err)
	}
	if !strings.Contains(res.out, `Switched to connection "local" (`+addr+")") {
		t.Errorf("use output = %q", res.out)
	}

	res = runApp(t, "", "--config", cfg, "-o", "json", "connections")
	if res.err != nil {
		t.Fatalf("connections error = %v", res.err)
	}
	var infos []ConnectionInfo
	if err := json.Unmarshal([]byte(res.out), &infos); err != nil {
		t.Fatalf("connections output is not JSON: %v\n%s", err, res.out)
	}
	if len(infos) != 2 || infos[0].Name != "local" || !infos[0].Current || infos[1].Current {
		t.Errorf("connections = %+v", infos)
	}
	if infos[0].Timeout != config.DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", infos[0].Timeout, config.DefaultTimeout)
	}

	// The saved current connection is the default target.
	res = runApp(t, "", "--config", cfg, "-o", "raw", "PING", "saved")
	if res.err != nil || res.out != "saved\n" {
		t.Errorf("PING via saved connection = %q, %v", res.out, res.err)
	}
}

func TestConnect_Errors(t *testing.T) {
	cfg := isolate(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unreachable", []string{"connect", "127.0.0.1:1"}, "connect failed"},
		{"use unknown", []string{"use", "missing"}, `connection "missing" not found`},
		{"use without name", []string{"use"}, "connection name required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runApp(t, "", append([]string{"--config", cfg}, tt.args...)...)
			if res.err == nil || !strings.Contains(res.err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", res.err, tt.wantErr)
			}
		})
	}
}

func TestConnections_Empty(t *testing.T) {
	cfg := isolate(t)

	res := runApp(t, "", "--config", cfg, "connections")
	if res.err != nil {
		t.Fatalf("connections error = %v", res.err)
	}
	if res.out != "No saved connections\n" {
		t.Errorf("output = %q", res.out)
	}
}

func TestDisconnect(t *testing.T) {
	cfg := isolate(t)

	res := runApp(t, "", "--config", cfg, "disconnect")
	if res.err != nil {
		t.Fatalf("disconnect error = %v", res.err)
	}
	if res.out != "Not connected to any server\n" {
		t.Errorf("output = %q", res.out)
	}
}

func TestREPL_LocalCommands(t *testing.T) {
	addr := startServer(t)
	other := startServer(t)
	cfg := isolate(t)

	input := strings.Join([]string{
		"connect " + other,
		"PING",
		"disconnect",
		"disconnect",
		"connections",
		"",
	}, "\n")
	res := runApp(t, input, "--config", cfg, "--server", addr)
	if res.err != nil {
		t.Fatalf("Run() error = %v", res.err)
	}

	for _, want := range []string{
		addr + "> Connected to " + other,
		other + "> PONG\n",
		"Disconnected\n",
		"Not connected to any server\n",
		"No saved connections\n",
	} {
		if !strings.Contains(res.out, want) {
			t.Errorf("output = %q, missing %q", res.out, want)
		}
	}
}
