package config

import "time"

// Defaults used when neither the file, the environment nor flags set a value.
const (
	DefaultServer  = "127.0.0.1:6379"
	DefaultOutput  = "text"
	DefaultTimeout = 5 * time.Second
)

// CLIConfig is the configuration for rudis-cli.
type CLIConfig struct {
	// Default connection settings
	DefaultServer string        `yaml:"default_server"`
	DefaultOutput string        `yaml:"default_output"` // text, raw, table, json, yaml
	Timeout       time.Duration `yaml:"timeout"`

	// Saved connections
	Connections map[string]ConnectionConfig `yaml:"connections"`

	// Current active connection
	CurrentConnection string `yaml:"current_connection"`

	// REPL history file; empty means ~/.rudis/history
	HistoryFile string `yaml:"history_file,omitempty"`
}

// ConnectionConfig stores saved connection details.
type ConnectionConfig struct {
	Server  string        `yaml:"server"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer: DefaultServer,
		DefaultOutput: DefaultOutput,
		Timeout:       DefaultTimeout,
		Connections:   make(map[string]ConnectionConfig),
	}
}

// Server returns the address to dial: the current saved connection if one is
// selected, otherwise DefaultServer.
func (c *CLIConfig) Server() string {
	if conn, ok := c.Connections[c.CurrentConnection]; ok && conn.Server != "" {
		return conn.Server
	}
	return c.DefaultServer
}

// RequestTimeout returns the timeout of the current saved connection, falling
// back to Timeout and then DefaultTimeout.
func (c *CLIConfig) RequestTimeout() time.Duration {
	if conn, ok := c.Connections[c.CurrentConnection]; ok && conn.Timeout > 0 {
		return conn.Timeout
	}
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}
