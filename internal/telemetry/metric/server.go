package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures ServerMetrics.
type Config struct {
	// Namespace is the metrics namespace (default: "rudis").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is where the metrics are registered.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures ServerMetrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the registerer.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = reg
	}
}

// ServerMetrics holds the collectors updated by the reactor.
type ServerMetrics struct {
	ConnectedClients    prometheus.Gauge
	ConnectionsAccepted prometheus.Counter
	ConnectionsClosed   *prometheus.CounterVec
	AcceptErrors        prometheus.Counter
	Commands            *prometheus.CounterVec
	CommandDuration     *prometheus.HistogramVec
	ProtocolErrors      prometheus.Counter
	RateLimited         prometheus.Counter
	StaleEvents         prometheus.Counter
	LoopIterations      prometheus.Counter
	PollDuration        prometheus.Histogram
	EventsPerPoll       prometheus.Histogram
}

// NewServerMetrics creates and registers the server metrics.
func NewServerMetrics(opts ...Option) *ServerMetrics {
	cfg := &Config{
		Namespace: DefaultNamespace,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	factory := promauto.With(cfg.Registry)
	ns, sub, labels := cfg.Namespace, cfg.Subsystem, cfg.ConstLabels

	return &ServerMetrics{
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name: "connected_clients",
			Help: "Number of clients currently registered.",
		}),
		ConnectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name: "connections_accepted_total",
			Help: "Total number of accepted connections.",
		}),
		ConnectionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name: "connections_closed_total",
			Help: "Total number of closed connections by reason.",
		}, []string{"reason"}),
		AcceptErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name: "accept_errors_total",
			Help: "Accept calls that failed for a reason other than an empty backlog.",
		}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name: "commands_total",
			Help: "Total number of commands applied by name.",
		}, []string{"command"}),
		CommandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name:    "command_duration_seconds",
			Help:    "Time spent applying a command, reply write included.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"command"}),
		ProtocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name: "protocol_errors_total",
			Help: "Clients dropped because of malformed or invalid requests.",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name: "rate_limited_total",
			Help: "Commands rejected by the per-client rate limit.",
		}),
		StaleEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name: "stale_events_total",
			Help: "Readiness events for clients that were already removed.",
		}),
		LoopIterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name: "loop_iterations_total",
			Help: "Reactor loop iterations.",
		}),
		PollDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name:    "poll_wait_seconds",
			Help:    "Time spent blocked in the readiness wait.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		EventsPerPoll: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub, ConstLabels: labels,
			Name:    "poll_events",
			Help:    "Number of readiness events returned per wait.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11),
		}),
	}
}

// ClientConnected records an accepted and registered client.
func (m *ServerMetrics) ClientConnected() {
	if m == nil {
		return
	}
	m.ConnectionsAccepted.Inc()
	m.ConnectedClients.Inc()
}

// ClientClosed records a client removal.
func (m *ServerMetrics) ClientClosed(reason string) {
	if m == nil {
		return
	}
	m.ConnectionsClosed.WithLabelValues(reason).Inc()
	m.ConnectedClients.Dec()
}

// SetConnectedClients overwrites the connected clients gauge.
func (m *ServerMetrics) SetConnectedClients(n int) {
	if m == nil {
		return
	}
	m.ConnectedClients.Set(float64(n))
}

// AcceptFailed records a failed accept.
func (m *ServerMetrics) AcceptFailed() {
	if m == nil {
		return
	}
	m.AcceptErrors.Inc()
}

// CommandApplied records one applied command.
func (m *ServerMetrics) CommandApplied(name string, d time.Duration) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(name).Inc()
	m.CommandDuration.WithLabelValues(name).Observe(d.Seconds())
}

// ProtocolError records a client dropped for a protocol violation.
func (m *ServerMetrics) ProtocolError() {
	if m == nil {
		return
	}
	m.ProtocolErrors.Inc()
}

// CommandRateLimited records a rejected command.
func (m *ServerMetrics) CommandRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// StaleEvent records an event for an unknown client.
func (m *ServerMetrics) StaleEvent() {
	if m == nil {
		return
	}
	m.StaleEvents.Inc()
}

// LoopIteration records one reactor iteration.
func (m *ServerMetrics) LoopIteration(wait time.Duration, events int) {
	if m == nil {
		return
	}
	m.LoopIterations.Inc()
	m.PollDuration.Observe(wait.Seconds())
	m.EventsPerPoll.Observe(float64(events))
}
