package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables read by Merge.
const EnvPrefix = "RUDIS_"

// Flag and environment keys understood by Merge.
const (
	KeyServer  = "server"
	KeyOutput  = "output"
	KeyTimeout = "timeout"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".rudis", "cli.yaml")
}

// DefaultHistoryPath returns the default REPL history file path.
func DefaultHistoryPath() string {
	return filepath.Join(homeDir(), ".rudis", "history")
}

func homeDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return dir
}

// Load loads CLI configuration from file. A missing file yields Default().
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cli config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse cli config %s: %w", path, err)
	}
	if cfg.Connections == nil {
		cfg.Connections = make(map[string]ConnectionConfig)
	}
	if cfg.CurrentConnection != "" {
		if _, ok := cfg.Connections[cfg.CurrentConnection]; !ok {
			return nil, fmt.Errorf("cli config %s: current connection %q is not defined", path, cfg.CurrentConnection)
		}
	}
	return cfg, nil
}

// Save saves CLI configuration to file, readable only by the owner.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode cli config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Merge merges environment variables and flags into config. Keys of env are
// full variable names (RUDIS_SERVER); keys of flags are the bare Key* names.
// Empty values are ignored. An explicit server overrides any selected
// connection.
func Merge(cfg *CLIConfig, env map[string]string, flags map[string]string) (*CLIConfig, error) {
	out := *cfg
	out.Connections = make(map[string]ConnectionConfig, len(cfg.Connections))
	for k, v := range cfg.Connections {
		out.Connections[k] = v
	}

	for _, src := range []struct {
		name   string
		lookup func(string) string
	}{
		{"environment", func(k string) string { return env[EnvPrefix+strings.ToUpper(k)] }},
		{"flags", func(k string) string { return flags[k] }},
	} {
		if v := src.lookup(KeyServer); v != "" {
			out.DefaultServer = v
			out.CurrentConnection = ""
		}
		if v := src.lookup(KeyOutput); v != "" {
			out.DefaultOutput = v
		}
		if v := src.lookup(KeyTimeout); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				return nil, fmt.Errorf("%s: invalid timeout %q", src.name, v)
			}
			out.Timeout = d
			if conn, ok := out.Connections[out.CurrentConnection]; ok {
				conn.Timeout = 0
				out.Connections[out.CurrentConnection] = conn
			}
		}
	}
	return &out, nil
}

// Environ returns the RUDIS_* variables of the process environment.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, k := range []string{KeyServer, KeyOutput, KeyTimeout} {
		name := EnvPrefix + strings.ToUpper(k)
		if v, ok := os.LookupEnv(name); ok {
			env[name] = v
		}
	}
	return env
}
