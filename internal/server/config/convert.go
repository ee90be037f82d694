package config

import (
	"github.com/yndnr/rudis-go/internal/server/redisserver"
	"github.com/yndnr/rudis-go/internal/telemetry/logger"
	"github.com/yndnr/rudis-go/internal/telemetry/tracer"
)

// RedisServerConfig returns the listener and reactor settings as a redisserver.Config.
func (c *ServerConfig) RedisServerConfig() *redisserver.Config {
	return &redisserver.Config{
		Host:           c.Server.Redis.Host,
		Port:           c.Server.Redis.Port,
		Backlog:        c.Server.Redis.Backlog,
		MaxEvents:      c.Reactor.MaxEvents,
		PollTimeout:    c.Reactor.PollTimeout,
		CronInterval:   c.Reactor.CronInterval,
		ReadBufferSize:   c.Reactor.ReadBufferSize,
		QueryBufferLimit: c.Reactor.QueryBufferLimit,
		WriteTimeout:     c.Reactor.WriteTimeout,
		RateLimit:        c.Reactor.RateLimit,
		RateBurst:        c.Reactor.RateBurst,
	}
}

// LoggerConfig returns the logger settings. Output is left to the caller.
func (c *ServerConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Log.Level,
		Format: c.Log.Format,
	}
}

// TracerConfig returns the tracing settings.
func (c *ServerConfig) TracerConfig() tracer.Config {
	return tracer.Config{Enabled: c.Tracing.Enabled}
}
