package config

import "time"

// Default configuration values.
const (
	DefaultRedisHost    = "127.0.0.1"
	DefaultRedisPort    = 6379
	DefaultRedisBacklog = 511
	DefaultMetricsAddr  = "127.0.0.1:9121"

	DefaultMaxEvents        = 1024
	DefaultPollTimeout      = 100 * time.Millisecond
	DefaultCronInterval     = 100 * time.Millisecond
	DefaultReadBufferSize   = 4096
	DefaultQueryBufferLimit = 1 << 30
	DefaultWriteTimeout     = 5 * time.Second
	DefaultRateBurst        = 100

	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultLogBufferSize = 4096
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Host:    DefaultRedisHost,
				Port:    DefaultRedisPort,
				Backlog: DefaultRedisBacklog,
			},
			Metrics: MetricsConfig{
				Enabled: false,
				Addr:    DefaultMetricsAddr,
			},
		},
		Reactor: ReactorSection{
			MaxEvents:      DefaultMaxEvents,
			PollTimeout:    DefaultPollTimeout,
			CronInterval:   DefaultCronInterval,
			ReadBufferSize:   DefaultReadBufferSize,
			QueryBufferLimit: DefaultQueryBufferLimit,
			WriteTimeout:     DefaultWriteTimeout,
			RateBurst:        DefaultRateBurst,
		},
		Log: LogSection{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			Async:      true,
			BufferSize: DefaultLogBufferSize,
		},
	}
}
