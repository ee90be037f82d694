package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Redis struct {
			Host string `koanf:"host"`
			Port int    `koanf:"port"`
		} `koanf:"redis"`
	} `koanf:"server"`
	Reactor struct {
		PollTimeout    time.Duration `koanf:"poll_timeout"`
		ReadBufferSize int           `koanf:"read_buffer_size"`
	} `koanf:"reactor"`
	Debug bool `koanf:"debug"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rudis.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/rudis.yaml"),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/rudis.yaml" {
		t.Errorf("filePath = %q, want %q", l.filePath, "/path/to/rudis.yaml")
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  redis:
    host: "0.0.0.0"
    port: 6380
debug: true
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if host := l.GetString("server.redis.host"); host != "0.0.0.0" {
		t.Errorf("server.redis.host = %q, want %q", host, "0.0.0.0")
	}
	if port := l.GetInt("server.redis.port"); port != 6380 {
		t.Errorf("server.redis.port = %d, want %d", port, 6380)
	}
	if !l.GetBool("debug") {
		t.Error("debug should be true")
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile("/nonexistent/rudis.yaml"); err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
}

func TestLoader_LoadFile_Empty(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("RUDIS_SERVER_REDIS_HOST", "10.0.0.1")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if host := l.GetString("server.redis.host"); host != "10.0.0.1" {
		t.Errorf("server.redis.host = %q, want %q", host, "10.0.0.1")
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_PORT", "9090")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if port := l.GetString("server.port"); port != "9090" {
		t.Errorf("server.port = %q, want %q", port, "9090")
	}
}

func TestLoader_Load_UnderscoredKeys(t *testing.T) {
	t.Setenv("RUDIS_REACTOR_READ_BUFFER_SIZE", "8192")
	t.Setenv("RUDIS_REACTOR_POLL_TIMEOUT", "250ms")

	var cfg testConfig
	if err := NewLoader().Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Reactor.ReadBufferSize != 8192 {
		t.Errorf("ReadBufferSize = %d, want %d", cfg.Reactor.ReadBufferSize, 8192)
	}
	if cfg.Reactor.PollTimeout != 250*time.Millisecond {
		t.Errorf("PollTimeout = %v, want %v", cfg.Reactor.PollTimeout, 250*time.Millisecond)
	}
}

func TestLoader_Load_IgnoresUnknownEnv(t *testing.T) {
	t.Setenv("RUDIS_SERVER", "127.0.0.1:7000")
	t.Setenv("RUDIS_TIMEOUT", "2s")
	t.Setenv("RUDIS_SERVER_REDIS_PORT", "6390")

	var cfg testConfig
	l := NewLoader()
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Redis.Port != 6390 {
		t.Errorf("Port = %d, want 6390", cfg.Server.Redis.Port)
	}
	if l.Get("timeout") != nil {
		t.Errorf("Get(timeout) = %v, want nil", l.Get("timeout"))
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()

	data := map[string]any{
		"server.redis.host": "localhost",
		"debug":             true,
	}
	if err := l.LoadMap(data); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	if host := l.GetString("server.redis.host"); host != "localhost" {
		t.Errorf("server.redis.host = %q, want %q", host, "localhost")
	}
	if !l.GetBool("debug") {
		t.Error("debug should be true")
	}
}

func TestLoader_LoadMap_MergesWithFile(t *testing.T) {
	path := writeConfig(t, `
server:
  redis:
    host: "from-file"
    port: 6380
`)

	l := NewLoader(WithConfigFile(path))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := l.LoadMap(map[string]any{"server.redis.port": 7000}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if cfg.Server.Redis.Host != "from-file" {
		t.Errorf("Host = %q, want %q", cfg.Server.Redis.Host, "from-file")
	}
	if cfg.Server.Redis.Port != 7000 {
		t.Errorf("Port = %d, want %d", cfg.Server.Redis.Port, 7000)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
server:
  redis:
    host: "from-file"
`)
	t.Setenv("RUDIS_SERVER_REDIS_HOST", "from-env")

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Redis.Host != "from-env" {
		t.Errorf("Host = %q, want %q (env should override file)", cfg.Server.Redis.Host, "from-env")
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  redis:
    port: 6390
`)

	var cfg testConfig
	cfg.Server.Redis.Host = "127.0.0.1"
	cfg.Reactor.ReadBufferSize = 4096

	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Redis.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want default %q", cfg.Server.Redis.Host, "127.0.0.1")
	}
	if cfg.Reactor.ReadBufferSize != 4096 {
		t.Errorf("ReadBufferSize = %d, want default %d", cfg.Reactor.ReadBufferSize, 4096)
	}
	if cfg.Server.Redis.Port != 6390 {
		t.Errorf("Port = %d, want %d", cfg.Server.Redis.Port, 6390)
	}
}

func TestLoader_IsLoaded(t *testing.T) {
	l := NewLoader()
	if l.IsLoaded() {
		t.Error("IsLoaded() should be false before Load()")
	}

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}

func TestLoader_AllAndKeys(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"key1": "value1",
		"key2": "value2",
	})

	if all := l.All(); len(all) < 2 {
		t.Errorf("All() returned %d keys, want at least 2", len(all))
	}
	if keys := l.Keys(); len(keys) < 2 {
		t.Errorf("Keys() returned %d keys, want at least 2", len(keys))
	}
}

func TestLoader_GetDuration(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{"timeout": "2s"})

	if d := l.GetDuration("timeout"); d != 2*time.Second {
		t.Errorf("GetDuration(timeout) = %v, want %v", d, 2*time.Second)
	}
}

// ============================================================================
// KeysOf
// ============================================================================

func TestKeysOf(t *testing.T) {
	keys := KeysOf(&testConfig{})

	tests := []struct {
		env  string
		want string
	}{
		{"server_redis_host", "server.redis.host"},
		{"server_redis_port", "server.redis.port"},
		{"reactor_poll_timeout", "reactor.poll_timeout"},
		{"reactor_read_buffer_size", "reactor.read_buffer_size"},
		{"debug", "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := keys[tt.env]; got != tt.want {
				t.Errorf("KeysOf()[%q] = %q, want %q", tt.env, got, tt.want)
			}
		})
	}

	if len(keys) != len(tests) {
		t.Errorf("KeysOf() returned %d keys, want %d", len(keys), len(tests))
	}
}

func TestKeysOf_NonStruct(t *testing.T) {
	if keys := KeysOf(42); len(keys) != 0 {
		t.Errorf("KeysOf(42) = %v, want empty", keys)
	}
	if keys := KeysOf(nil); len(keys) != 0 {
		t.Errorf("KeysOf(nil) = %v, want empty", keys)
	}
}
