package redisserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yndnr/rudis-go/internal/netpoll"
	"github.com/yndnr/rudis-go/internal/resp"
	"github.com/yndnr/rudis-go/internal/telemetry/logger"
	"github.com/yndnr/rudis-go/internal/telemetry/metric"
	"github.com/yndnr/rudis-go/internal/telemetry/tracer"
)

// listenerToken is the poller token of the listening socket. Client ids
// start at 1 so they never collide with it.
const listenerToken uint64 = 0

// State is the reactor lifecycle state.
type State int32

const (
	StateInitialized State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Close reasons, used in logs and the connections_closed_total metric.
const (
	reasonEOF      = "eof"
	reasonReset    = "reset"
	reasonProtocol = "protocol"
	reasonIO       = "io"
	reasonHangup   = "hangup"
	reasonShutdown = "shutdown"
)

// Reactor is the single-threaded event loop. It owns the listener, the
// poller, the client registry and the timer queue.
type Reactor struct {
	cfg      Config
	listener *netpoll.Listener
	poller   *netpoll.Poller
	registry *Registry
	commands *CommandTable
	timers   *timerQueue

	logger  logger.Logger
	metrics *metric.ServerMetrics
	tracer  *tracer.Provider

	nextID   uint64
	state    atomic.Int32
	stopping atomic.Bool
	done     chan struct{}
	err      error
}

// NewReactor binds the listener described by cfg and prepares the poller.
// Nothing is accepted until Run.
func NewReactor(cfg *Config, opts ...Option) (*Reactor, error) {
	c := cfg.withDefaults()
	o := buildOptions(opts)

	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	ln, err := netpoll.Listen(c.Host, c.Port, c.Backlog)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	p, err := netpoll.New(c.MaxEvents)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("create poller: %w", err)
	}
	if err := p.Add(ln.FD(), listenerToken); err != nil {
		p.Close()
		ln.Close()
		return nil, fmt.Errorf("register listener: %w", err)
	}

	r := &Reactor{
		cfg:      c,
		listener: ln,
		poller:   p,
		registry: NewRegistry(
			WithReadBufferSize(c.ReadBufferSize),
			WithQueryBufferLimit(c.QueryBufferLimit),
			WithRateLimit(c.RateLimit, c.RateBurst),
		),
		commands: o.commands,
		timers:   newTimerQueue(),
		logger:   o.logger,
		metrics:  o.metrics,
		tracer:   o.tracer,
		nextID:   1,
		done:     make(chan struct{}),
	}
	r.timers.add(time.Now(), c.CronInterval, r.cron)
	return r, nil
}

// Addr returns the bound listener address.
func (r *Reactor) Addr() net.Addr { return r.listener.Addr() }

// Registry returns the client registry.
func (r *Reactor) Registry() *Registry { return r.registry }

// State returns the current lifecycle state.
func (r *Reactor) State() State { return State(r.state.Load()) }

// Done is closed once the reactor reached StateStopped and released its
// descriptors.
func (r *Reactor) Done() <-chan struct{} { return r.done }

// Err returns the error that ended Run, once Done is closed.
func (r *Reactor) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// AddTimer schedules fn to run on the reactor goroutine after delay.
func (r *Reactor) AddTimer(delay time.Duration, fn TimerFunc) TimerID {
	return r.timers.add(time.Now(), delay, fn)
}

// CancelTimer removes a timer. It reports whether the timer existed.
func (r *Reactor) CancelTimer(id TimerID) bool {
	return r.timers.cancel(id)
}

// Stop asks the loop to finish its current batch and shut down. A reactor
// that was never run is torn down immediately.
func (r *Reactor) Stop() {
	r.stopping.Store(true)
	if r.state.CompareAndSwap(int32(StateInitialized), int32(StateStopped)) {
		r.teardown()
		close(r.done)
	}
}

// Run drives the loop on the calling goroutine, locked to its OS thread,
// until Stop is called or ctx is done. A poller failure ends Run with an
// error wrapping ErrFatal.
func (r *Reactor) Run(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(StateInitialized), int32(StateRunning)) {
		if r.State() == StateStopped {
			return ErrServerClosed
		}
		return fmt.Errorf("redisserver: reactor cannot run from state %s", r.State())
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(r.done)
	defer r.teardown()

	stop := context.AfterFunc(ctx, func() { r.stopping.Store(true) })
	defer stop()
	ctx = logger.WithLogger(ctx, r.logger)

	r.logger.Info("reactor running", "addr", r.Addr().String())

	events := make([]netpoll.Event, r.cfg.MaxEvents)
	for !r.stopping.Load() {
		start := time.Now()
		n, err := r.poller.Wait(events, r.pollTimeout(start))
		r.metrics.LoopIteration(time.Since(start), n)
		if err != nil {
			r.err = fmt.Errorf("%w: %w", ErrFatal, err)
			r.logger.Error("readiness wait failed", "error", err)
			return r.err
		}

		for _, ev := range events[:n] {
			if ev.Token == listenerToken {
				r.acceptBurst()
				continue
			}
			r.handleEvent(ctx, ev)
		}
		r.timers.run(time.Now())
	}
	return nil
}

func (r *Reactor) pollTimeout(now time.Time) time.Duration {
	timeout := r.cfg.PollTimeout
	if d, ok := r.timers.until(now); ok && d < timeout {
		timeout = d
	}
	return timeout
}

// acceptBurst accepts until the backlog is empty.
func (r *Reactor) acceptBurst() {
	for {
		sock, err := r.listener.Accept()
		if errors.Is(err, ErrWouldBlock) {
			return
		}
		if err != nil {
			if netpoll.IsTemporary(err) {
				continue
			}
			r.metrics.AcceptFailed()
			if netpoll.IsResourceExhausted(err) {
				r.logger.Warn("accept: out of resources", "error", err)
			} else {
				r.logger.Error("accept failed", "error", err)
			}
			return
		}
		r.register(sock)
	}
}

func (r *Reactor) register(sock *netpoll.Socket) {
	id := r.nextID
	r.nextID++

	addr := ""
	if ra := sock.RemoteAddr(); ra != nil {
		addr = ra.String()
	}
	sock.SetWriteTimeout(r.cfg.WriteTimeout)

	if err := r.poller.Add(sock.FD(), id); err != nil {
		r.logger.Error("register client with poller", "client_id", id, "addr", addr, "error", err)
		sock.Close()
		return
	}
	if _, err := r.registry.Create(id, sock, addr); err != nil {
		r.logger.Error("register client", "client_id", id, "addr", addr, "error", err)
		_ = r.poller.Remove(sock.FD())
		sock.Close()
		return
	}
	r.metrics.ClientConnected()
	r.logger.Debug("client connected", "client_id", id, "addr", addr)
}

func (r *Reactor) handleEvent(ctx context.Context, ev netpoll.Event) {
	c, ok := r.registry.Get(ev.Token)
	if !ok {
		r.metrics.StaleEvent()
		return
	}

	if ev.Readable || ev.Hangup {
		done, err := r.serve(ctx, c)
		if done {
			r.removeClient(c, closeReason(err), err)
			return
		}
	}
	if ev.Error || ev.Hangup {
		r.removeClient(c, reasonHangup, nil)
	}
}

// serve reads and dispatches frames until the socket would block. done is
// true when the client must be removed; err is nil for a clean close.
func (r *Reactor) serve(ctx context.Context, c *Client) (done bool, err error) {
	for {
		frame, err := c.conn.ReadFrame()
		switch {
		case errors.Is(err, ErrWouldBlock):
			return false, nil
		case err != nil:
			return true, err
		case frame == nil:
			return true, nil
		}

		if err := r.dispatch(ctx, c, frame); err != nil {
			return true, err
		}
	}
}

func (r *Reactor) dispatch(ctx context.Context, c *Client, frame resp.Frame) error {
	cmd, err := r.commands.Parse(frame)
	if err != nil {
		return err
	}
	if !c.Allow() {
		r.metrics.CommandRateLimited()
		return c.conn.WriteFrame(resp.Error("ERR rate limit exceeded"))
	}

	label := commandLabel(cmd)
	c.setCurrent(cmd.Name())
	spanCtx, span := r.tracer.StartSpan(ctx, "rudis."+label,
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", label),
		attribute.Int64("rudis.client.id", int64(c.ID)),
	)

	start := time.Now()
	err = cmd.Apply(c.conn)
	r.metrics.CommandApplied(label, time.Since(start))
	if err != nil {
		lctx := logger.WithClientID(spanCtx, c.ID)
		if id := span.TraceID(); id != "" {
			lctx = logger.WithTraceID(lctx, id)
		}
		logger.L(lctx).Debug("command failed", "command", label, "error", err)
	}
	span.End(err)
	c.setCurrent("")
	return err
}

// removeClient deregisters c and closes its socket. It is a no-op for a
// client already removed.
func (r *Reactor) removeClient(c *Client, reason string, cause error) {
	if _, ok := r.registry.Remove(c.ID); !ok {
		return
	}
	if fd := c.FD(); fd >= 0 {
		if err := r.poller.Remove(fd); err != nil {
			r.logger.Debug("deregister client", "client_id", c.ID, "error", err)
		}
	}
	if err := c.Close(); err != nil {
		r.logger.Debug("close client", "client_id", c.ID, "error", err)
	}
	r.metrics.ClientClosed(reason)

	switch reason {
	case reasonProtocol:
		r.metrics.ProtocolError()
		r.logger.Warn("client dropped: protocol error", "client_id", c.ID, "addr", c.Addr, "error", cause)
	case reasonIO, reasonReset:
		r.logger.Debug("client dropped", "client_id", c.ID, "addr", c.Addr, "reason", reason, "error", cause)
	default:
		r.logger.Debug("client disconnected", "client_id", c.ID, "addr", c.Addr, "reason", reason)
	}
}

func (r *Reactor) cron(time.Time) time.Duration {
	r.metrics.SetConnectedClients(r.registry.Len())
	return r.cfg.CronInterval
}

func (r *Reactor) teardown() {
	for _, c := range r.registry.Snapshot() {
		r.removeClient(c, reasonShutdown, nil)
	}
	_ = r.poller.Remove(r.listener.FD())
	if err := r.listener.Close(); err != nil {
		r.logger.Warn("close listener", "error", err)
	}
	if err := r.poller.Close(); err != nil {
		r.logger.Warn("close poller", "error", err)
	}
	r.state.Store(int32(StateStopped))
	r.logger.Info("reactor stopped")
}

func commandLabel(cmd Command) string {
	if _, ok := cmd.(*Unknown); ok {
		return "unknown"
	}
	return cmd.Name()
}

func closeReason(err error) string {
	switch {
	case err == nil:
		return reasonEOF
	case isProtocolError(err):
		return reasonProtocol
	case errors.Is(err, ErrConnReset):
		return reasonReset
	default:
		return reasonIO
	}
}

func isProtocolError(err error) bool {
	return errors.Is(err, resp.ErrMalformed) ||
		errors.Is(err, resp.ErrNestedArray) ||
		errors.Is(err, ErrProtocol) ||
		errors.Is(err, ErrTrailingFields) ||
		errors.Is(err, ErrEndOfStream)
}
