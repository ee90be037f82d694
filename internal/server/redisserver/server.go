package redisserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Config holds the server configuration.
type Config struct {
	// Host is the listen address (default: 127.0.0.1).
	Host string
	// Port is the listen port (default: 6379). Port 0 picks a free port.
	Port int
	// Backlog is the listen backlog (default: 511).
	Backlog int
	// MaxEvents bounds the readiness notifications handled per iteration (default: 1024).
	MaxEvents int
	// PollTimeout bounds each readiness wait so Stop is observed promptly (default: 100ms).
	PollTimeout time.Duration
	// CronInterval is the period of the housekeeping timer (default: 100ms).
	CronInterval time.Duration
	// ReadBufferSize is the initial read buffer of each connection (default: 4KB).
	ReadBufferSize int
	// QueryBufferLimit caps the unparsed input of one client; a client
	// exceeding it is dropped (default: 1GB).
	QueryBufferLimit int
	// WriteTimeout bounds a reply write to a client that stopped reading (default: 5s).
	WriteTimeout time.Duration
	// RateLimit is the number of commands per second allowed per client.
	// Set to 0 to disable rate limiting (default).
	RateLimit float64
	// RateBurst is the token bucket size when RateLimit is set.
	RateBurst int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:           "127.0.0.1",
		Port:           6379,
		Backlog:        511,
		MaxEvents:      1024,
		PollTimeout:    100 * time.Millisecond,
		CronInterval:   100 * time.Millisecond,
		ReadBufferSize:   DefaultReadBufferSize,
		QueryBufferLimit: DefaultQueryBufferLimit,
		WriteTimeout:     5 * time.Second,
	}
}

// withDefaults returns a copy of c with zero fields filled in. Port 0 is kept.
func (c *Config) withDefaults() Config {
	d := DefaultConfig()
	if c == nil {
		return *d
	}
	out := *c
	if out.Host == "" {
		out.Host = d.Host
	}
	if out.Backlog <= 0 {
		out.Backlog = d.Backlog
	}
	if out.MaxEvents <= 0 {
		out.MaxEvents = d.MaxEvents
	}
	if out.PollTimeout <= 0 {
		out.PollTimeout = d.PollTimeout
	}
	if out.CronInterval <= 0 {
		out.CronInterval = d.CronInterval
	}
	if out.ReadBufferSize <= 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.QueryBufferLimit <= 0 {
		out.QueryBufferLimit = d.QueryBufferLimit
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	return out
}

// Server runs a Reactor on its own goroutine.
type Server struct {
	cfg   *Config
	opts  []Option
	runID ulid.ULID
	cmds  *CommandTable

	mu      sync.Mutex
	reactor *Reactor
	closed  bool

	done     chan struct{}
	doneOnce sync.Once
	err      error
}

// New creates a server. Commands can be registered on Commands() until Start.
func New(cfg *Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	o := buildOptions(opts)
	// Pin the resolved table so the reactor and Commands() share it.
	opts = append(opts, WithCommands(o.commands))

	return &Server{
		cfg:   cfg,
		opts:  opts,
		runID: ulid.Make(),
		cmds:  o.commands,
		done:  make(chan struct{}),
	}
}

// Start binds the listener and starts the reactor. It returns once the
// listener is bound; Addr is valid afterwards. Cancelling ctx stops the
// reactor like Shutdown does.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	if s.reactor != nil {
		return errors.New("redisserver: server already started")
	}

	r, err := NewReactor(s.cfg, s.opts...)
	if err != nil {
		return err
	}
	s.reactor = r

	r.logger.Info("starting redis server", "address", r.Addr().String(), "run_id", s.RunID())

	go func() {
		err := r.Run(ctx)
		if errors.Is(err, ErrServerClosed) {
			err = nil
		}
		if err != nil {
			r.logger.Error("reactor exited", "error", err)
		}
		s.finish(err)
	}()
	return nil
}

func (s *Server) finish(err error) {
	s.doneOnce.Do(func() {
		s.err = err
		close(s.done)
	})
}

// Shutdown stops the reactor and waits until it reached StateStopped or ctx
// is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	r := s.reactor
	s.mu.Unlock()

	if r == nil {
		s.finish(nil)
		return nil
	}
	r.Stop()

	select {
	case <-r.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	s.finish(r.Err())
	return nil
}

func (s *Server) getReactor() *Reactor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reactor
}

// Done is closed when the server has stopped.
func (s *Server) Done() <-chan struct{} { return s.done }

// Err returns the error that stopped the server, once Done is closed.
// It wraps ErrFatal when the readiness wait failed.
func (s *Server) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Addr returns the listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if r := s.getReactor(); r != nil {
		return r.Addr()
	}
	return nil
}

// RunID returns the unique id of this server instance.
func (s *Server) RunID() string { return s.runID.String() }

// Commands returns the command table.
func (s *Server) Commands() *CommandTable { return s.cmds }

// Registry returns the client registry, or nil before Start.
func (s *Server) Registry() *Registry {
	if r := s.getReactor(); r != nil {
		return r.Registry()
	}
	return nil
}

// Reactor returns the running reactor, or nil before Start.
func (s *Server) Reactor() *Reactor { return s.getReactor() }

// State returns the reactor state; StateInitialized before Start.
func (s *Server) State() State {
	if r := s.getReactor(); r != nil {
		return r.State()
	}
	return StateInitialized
}
