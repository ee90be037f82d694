package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/rudis-go/internal/telemetry/logger"
)

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyReactor(&cfg.Reactor),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error

	if cfg.Redis.Host == "" {
		errs = append(errs, errors.New("server.redis.host is required"))
	}
	if cfg.Redis.Port < 0 || cfg.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.redis.port %d out of range", cfg.Redis.Port))
	}
	if cfg.Redis.Backlog < 1 {
		errs = append(errs, errors.New("server.redis.backlog must be at least 1"))
	}

	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			errs = append(errs, fmt.Errorf("server.metrics.addr: %w", err))
		} else if sameEndpoint(cfg.Metrics.Addr, cfg.Redis) {
			errs = append(errs, errors.New("server.metrics.addr conflicts with the redis listener"))
		}
	}

	return errors.Join(errs...)
}

func sameEndpoint(addr string, redis RedisConfig) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || redis.Port == 0 {
		return false
	}
	return host == redis.Host && port == fmt.Sprint(redis.Port)
}

func verifyReactor(cfg *ReactorSection) error {
	var errs []error

	if cfg.MaxEvents < 1 {
		errs = append(errs, errors.New("reactor.max_events must be at least 1"))
	}
	if cfg.PollTimeout <= 0 {
		errs = append(errs, errors.New("reactor.poll_timeout must be positive"))
	}
	if cfg.CronInterval <= 0 {
		errs = append(errs, errors.New("reactor.cron_interval must be positive"))
	}
	if cfg.ReadBufferSize < 16 {
		errs = append(errs, errors.New("reactor.read_buffer_size must be at least 16"))
	}
	if cfg.QueryBufferLimit < cfg.ReadBufferSize {
		errs = append(errs, errors.New("reactor.query_buffer_limit must be at least reactor.read_buffer_size"))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, errors.New("reactor.write_timeout must be positive"))
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("reactor.rate_limit must not be negative"))
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		errs = append(errs, errors.New("reactor.rate_burst must be at least 1 when rate_limit is set"))
	}

	return errors.Join(errs...)
}

func verifyLog(cfg *LogSection) error {
	var errs []error

	if !logger.ValidLevel(cfg.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or text", cfg.Format))
	}
	if cfg.Async && cfg.BufferSize < 1 {
		errs = append(errs, errors.New("log.buffer_size must be at least 1 when log.async is set"))
	}

	return errors.Join(errs...)
}
