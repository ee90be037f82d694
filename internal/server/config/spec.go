package config

import "time"

// ServerConfig is the root configuration for rudis-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Reactor ReactorSection `koanf:"reactor"`
	Log     LogSection     `koanf:"log"`
	Tracing TracingSection `koanf:"tracing"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis   RedisConfig   `koanf:"redis"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// RedisConfig configures the RESP listener.
type RedisConfig struct {
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
	Backlog int    `koanf:"backlog"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// ReactorSection tunes the event loop.
type ReactorSection struct {
	// MaxEvents bounds the readiness notifications handled per iteration.
	MaxEvents int `koanf:"max_events"`

	// PollTimeout bounds each readiness wait.
	PollTimeout time.Duration `koanf:"poll_timeout"`

	// CronInterval is the housekeeping timer period.
	CronInterval time.Duration `koanf:"cron_interval"`

	// ReadBufferSize is the initial per-connection read buffer.
	ReadBufferSize int `koanf:"read_buffer_size"`

	// QueryBufferLimit caps the unparsed input held for one client.
	QueryBufferLimit int `koanf:"query_buffer_limit"`

	// WriteTimeout bounds a reply write to a client that stopped reading.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// RateLimit is commands per second per client. 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the token bucket size when RateLimit is set.
	RateBurst int `koanf:"rate_burst"`
}

// LogSection configures logging.
type LogSection struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	Async      bool   `koanf:"async"`
	BufferSize int    `koanf:"buffer_size"`
}

// TracingSection configures OpenTelemetry spans.
type TracingSection struct {
	Enabled bool `koanf:"enabled"`
}
