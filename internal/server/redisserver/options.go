package redisserver

import (
	"github.com/yndnr/rudis-go/internal/telemetry/logger"
	"github.com/yndnr/rudis-go/internal/telemetry/metric"
	"github.com/yndnr/rudis-go/internal/telemetry/tracer"
)

type options struct {
	logger   logger.Logger
	metrics  *metric.ServerMetrics
	tracer   *tracer.Provider
	commands *CommandTable
}

// Option configures a Server or Reactor.
type Option func(*options)

// WithLogger sets the logger. The default is logger.Default().
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the metrics sink. Without it nothing is recorded.
func WithMetrics(m *metric.ServerMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the span provider. Without it spans are no-ops.
func WithTracer(t *tracer.Provider) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithCommands sets the command table. The default has only PING.
func WithCommands(t *CommandTable) Option {
	return func(o *options) {
		o.commands = t
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Default()
	}
	if o.commands == nil {
		o.commands = NewCommandTable()
	}
	return o
}
