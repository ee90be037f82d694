package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/rudis-go/internal/netpoll"
	"github.com/yndnr/rudis-go/internal/telemetry/logger"
	"github.com/yndnr/rudis-go/internal/telemetry/metric"
	"github.com/yndnr/rudis-go/internal/telemetry/tracer"
)

func testConfig() *Config {
	return &Config{
		Host:         "127.0.0.1",
		Port:         0,
		PollTimeout:  10 * time.Millisecond,
		CronInterval: 10 * time.Millisecond,
	}
}

func startServer(t *testing.T, cfg *Config, opts ...Option) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	s := New(cfg, opts...)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, s *Server) *testClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *testClient) send(wire string) {
	c.t.Helper()
	if _, err := io.WriteString(c.conn, wire); err != nil {
		c.t.Fatalf("write error = %v", err)
	}
}

func (c *testClient) expect(want string) {
	c.t.Helper()
	got := make([]byte, len(want))
	if _, err := io.ReadFull(c.r, got); err != nil {
		c.t.Fatalf("read reply error = %v (want %q)", err, want)
	}
	if string(got) != want {
		c.t.Fatalf("reply = %q, want %q", got, want)
	}
}

func (c *testClient) expectClosed() {
	c.t.Helper()
	buf := make([]byte, 64)
	n, err := c.r.Read(buf)
	if err == nil {
		c.t.Fatalf("read = %q, want connection closed", buf[:n])
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		c.t.Fatalf("read timed out, want connection closed")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// ============================================================================
// Request / reply
// ============================================================================

func TestServer_Commands(t *testing.T) {
	s := startServer(t, nil)

	tests := []struct {
		name  string
		req   string
		reply string
	}{
		{"ping", "*1\r\n$4\r\nPING\r\n", "+PONG\r\n"},
		{"ping lower case", "*1\r\n$4\r\nping\r\n", "+PONG\r\n"},
		{"ping message", "*2\r\n$4\r\nPING\r\n$5\r\nhello\r\n", "$5\r\nhello\r\n"},
		{"ping binary message", "*2\r\n$4\r\nPING\r\n$3\r\na\r\x00\r\n", "$3\r\na\r\x00\r\n"},
		{"unknown verb", "*2\r\n$3\r\nFOO\r\n$3\r\nbar\r\n", "-unknown command 'foo'\r\n"},
	}

	c := dial(t, s)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.t = t
			c.send(tt.req)
			c.expect(tt.reply)
		})
	}
}

func TestServer_Pipelined(t *testing.T) {
	s := startServer(t, nil)
	c := dial(t, s)

	c.send("*1\r\n$4\r\nPING\r\n*2\r\n$4\r\nPING\r\n$1\r\na\r\n*1\r\n$3\r\nFOO\r\n")
	c.expect("+PONG\r\n$1\r\na\r\n-unknown command 'foo'\r\n")
}

func TestServer_SplitRequest(t *testing.T) {
	s := startServer(t, nil)
	c := dial(t, s)

	wire := "*2\r\n$4\r\nPING\r\n$5\r\nhello\r\n"
	for i := 0; i < len(wire); i += 3 {
		end := min(i+3, len(wire))
		c.send(wire[i:end])
		time.Sleep(2 * time.Millisecond)
	}
	c.expect("$5\r\nhello\r\n")
}

func TestServer_ClientIDsStartAtOne(t *testing.T) {
	s := startServer(t, nil)
	c := dial(t, s)
	c.send("*1\r\n$4\r\nPING\r\n")
	c.expect("+PONG\r\n")

	snap := s.Registry().Snapshot()
	if len(snap) != 1 || snap[0].ID != 1 {
		t.Fatalf("Snapshot() = %v, want one client with id 1", snap)
	}
	if snap[0].Addr != c.conn.LocalAddr().String() {
		t.Errorf("client addr = %q, want %q", snap[0].Addr, c.conn.LocalAddr())
	}
}

// ============================================================================
// Disconnects
// ============================================================================

func TestServer_PartialClientDoesNotDisturbOthers(t *testing.T) {
	s := startServer(t, nil)

	a := dial(t, s)
	b := dial(t, s)

	b.send("*1\r\n$4\r\nPI")
	a.send("*1\r\n$4\r\nPING\r\n")
	a.expect("+PONG\r\n")
	waitFor(t, "two clients", func() bool { return s.Registry().Len() == 2 })

	b.conn.Close()
	waitFor(t, "partial client removal", func() bool { return s.Registry().Len() == 1 })

	a.send("*1\r\n$4\r\nPING\r\n")
	a.expect("+PONG\r\n")
}

func TestServer_ClientClose(t *testing.T) {
	s := startServer(t, nil)
	c := dial(t, s)
	c.send("*1\r\n$4\r\nPING\r\n")
	c.expect("+PONG\r\n")

	c.conn.Close()
	waitFor(t, "client removal", func() bool { return s.Registry().Len() == 0 })
}

func TestServer_ProtocolErrorDisconnects(t *testing.T) {
	tests := []struct {
		name string
		req  string
	}{
		{"not an array", "+PING\r\n"},
		{"integer verb", "*1\r\n:5\r\n"},
		{"empty array", "*0\r\n"},
		{"bad length", "*1\r\n$x\r\n"},
		{"bad type byte", "?\r\n"},
		{"trailing fields", "*3\r\n$4\r\nPING\r\n$1\r\na\r\n$1\r\nb\r\n"},
		{"nested array verb", "*1\r\n*1\r\n$4\r\nPING\r\n"},
	}

	s := startServer(t, nil)
	other := dial(t, s)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := dial(t, s)
			c.send(tt.req)
			c.expectClosed()

			other.t = t
			other.send("*1\r\n$4\r\nPING\r\n")
			other.expect("+PONG\r\n")
		})
	}
}

func TestServer_ManyClients(t *testing.T) {
	s := startServer(t, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
			if err != nil {
				errs <- err
				return
			}
			defer conn.Close()
			conn.SetDeadline(time.Now().Add(5 * time.Second))
			r := bufio.NewReader(conn)
			for j := 0; j < 10; j++ {
				if _, err := io.WriteString(conn, "*1\r\n$4\r\nPING\r\n"); err != nil {
					errs <- err
					return
				}
				line, err := r.ReadString('\n')
				if err != nil {
					errs <- err
					return
				}
				if line != "+PONG\r\n" {
					errs <- errors.New("unexpected reply " + line)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// ============================================================================
// Rate limit
// ============================================================================

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	s := startServer(t, cfg)
	c := dial(t, s)

	c.send("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n")
	c.expect("+PONG\r\n+PONG\r\n-ERR rate limit exceeded\r\n")
}

// ============================================================================
// Extension
// ============================================================================

func TestServer_RegisteredCommand(t *testing.T) {
	s := New(testConfig(), WithLogger(logger.Nop()))
	if err := s.Commands().Register("echo", func() Command { return &echoCommand{} }); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Shutdown(context.Background())

	c := dial(t, s)
	c.send("*3\r\n$4\r\nECHO\r\n$1\r\na\r\n$2\r\nbc\r\n")
	c.expect("*2\r\n$1\r\na\r\n$2\r\nbc\r\n")
}

// ============================================================================
// Lifecycle
// ============================================================================

func TestServer_Shutdown(t *testing.T) {
	s := New(testConfig(), WithLogger(logger.Nop()))
	if s.State() != StateInitialized {
		t.Errorf("State() before Start = %s, want initialized", s.State())
	}
	if s.Addr() != nil || s.Registry() != nil || s.Reactor() != nil {
		t.Error("accessors should be nil before Start")
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}
	waitFor(t, "running state", func() bool { return s.State() == StateRunning })

	c := dial(t, s)
	c.send("*1\r\n$4\r\nPING\r\n")
	c.expect("+PONG\r\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if s.State() != StateStopped {
		t.Errorf("State() = %s, want stopped", s.State())
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done() should be closed after Shutdown")
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
	if s.Registry().Len() != 0 {
		t.Errorf("Registry().Len() = %d after shutdown, want 0", s.Registry().Len())
	}
	c.expectClosed()

	if err := s.Start(context.Background()); !errors.Is(err, ErrServerClosed) {
		t.Errorf("Start() after Shutdown = %v, want ErrServerClosed", err)
	}
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown() = %v", err)
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	s := New(testConfig(), WithLogger(logger.Nop()))
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done() should be closed")
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrServerClosed) {
		t.Errorf("Start() = %v, want ErrServerClosed", err)
	}
}

func TestServer_StartShutdownRace(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := New(testConfig(), WithLogger(logger.Nop()))

		started := make(chan error, 1)
		go func() { started <- s.Start(context.Background()) }()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := s.Shutdown(ctx); err != nil {
			cancel()
			t.Fatalf("Shutdown() error = %v", err)
		}
		cancel()

		err := <-started
		switch {
		case errors.Is(err, ErrServerClosed):
			if r := s.Reactor(); r != nil {
				t.Fatalf("Start() = ErrServerClosed but a reactor was created")
			}
		case err == nil:
			r := s.Reactor()
			select {
			case <-r.Done():
			case <-time.After(3 * time.Second):
				r.Stop()
				t.Fatalf("reactor started concurrently with Shutdown kept running (state %s)", r.State())
			}
		default:
			t.Fatalf("Start() error = %v", err)
		}
	}
}

func TestServer_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(testConfig(), WithLogger(logger.Nop()))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	select {
	case <-s.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
	if s.State() != StateStopped {
		t.Errorf("State() = %s, want stopped", s.State())
	}
}

func TestServer_BindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	cfg := testConfig()
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	s := New(cfg, WithLogger(logger.Nop()))
	if err := s.Start(context.Background()); err == nil {
		s.Shutdown(context.Background())
		t.Fatal("Start() on a taken port should fail")
	}
}

func TestServer_RunID(t *testing.T) {
	a := New(nil)
	b := New(nil)
	if a.RunID() == "" || a.RunID() == b.RunID() {
		t.Errorf("RunID() = %q, %q, want distinct non-empty ids", a.RunID(), b.RunID())
	}
}

func TestReactor_StopBeforeRun(t *testing.T) {
	r, err := NewReactor(testConfig(), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewReactor() error = %v", err)
	}
	if r.State() != StateInitialized {
		t.Errorf("State() = %s, want initialized", r.State())
	}

	r.Stop()
	if r.State() != StateStopped {
		t.Errorf("State() = %s, want stopped", r.State())
	}
	if err := r.Run(context.Background()); !errors.Is(err, ErrServerClosed) {
		t.Errorf("Run() after Stop = %v, want ErrServerClosed", err)
	}
	select {
	case <-r.Done():
	default:
		t.Error("Done() should be closed")
	}
}

func TestReactor_Timer(t *testing.T) {
	r, err := NewReactor(testConfig(), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewReactor() error = %v", err)
	}
	go r.Run(context.Background())
	defer func() {
		r.Stop()
		<-r.Done()
	}()

	fired := make(chan struct{}, 1)
	runs := 0
	r.AddTimer(5*time.Millisecond, func(time.Time) time.Duration {
		runs++
		if runs < 3 {
			return time.Millisecond
		}
		fired <- struct{}{}
		return NoMore
	})
	cancelled := r.AddTimer(time.Hour, func(time.Time) time.Duration { return NoMore })
	if !r.CancelTimer(cancelled) {
		t.Error("CancelTimer() = false, want true")
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("timer did not fire")
	}
}

// ============================================================================
// Telemetry
// ============================================================================

func TestServer_Metrics(t *testing.T) {
	m := metric.NewServerMetrics(metric.WithRegistry(prometheus.NewRegistry()))
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2

	s := New(cfg, WithLogger(logger.Nop()), WithMetrics(m), WithTracer(tracer.New(tracer.Config{})))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	c := dial(t, s)
	c.send("*1\r\n$4\r\nPING\r\n*1\r\n$3\r\nFOO\r\n*1\r\n$4\r\nPING\r\n")
	c.expect("+PONG\r\n-unknown command 'foo'\r\n-ERR rate limit exceeded\r\n")

	bad := dial(t, s)
	bad.send("*1\r\n:1\r\n")
	bad.expectClosed()
	waitFor(t, "bad client removal", func() bool { return s.Registry().Len() == 1 })

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"accepted", m.ConnectionsAccepted, 2},
		{"ping", m.Commands.WithLabelValues("ping"), 1},
		{"unknown", m.Commands.WithLabelValues("unknown"), 1},
		{"rate limited", m.RateLimited, 1},
		{"protocol errors", m.ProtocolErrors, 1},
		{"closed protocol", m.ConnectionsClosed.WithLabelValues("protocol"), 1},
		{"closed shutdown", m.ConnectionsClosed.WithLabelValues("shutdown"), 1},
		{"connected", m.ConnectedClients, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCloseReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, reasonEOF},
		{ErrConnReset, reasonReset},
		{ErrProtocol, reasonProtocol},
		{ErrTrailingFields, reasonProtocol},
		{io.ErrUnexpectedEOF, reasonIO},
	}
	for _, tt := range tests {
		if got := closeReason(tt.err); got != tt.want {
			t.Errorf("closeReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateInitialized, "initialized"},
		{StateRunning, "running"},
		{StateStopped, "stopped"},
		{State(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

// ============================================================================
// Reactor events
// ============================================================================

func newIdleReactor(t *testing.T, m *metric.ServerMetrics) *Reactor {
	t.Helper()
	r, err := NewReactor(testConfig(), WithLogger(logger.Nop()), WithMetrics(m))
	if err != nil {
		t.Fatalf("NewReactor() error = %v", err)
	}
	t.Cleanup(r.Stop)
	return r
}

func TestReactor_StaleEventIsIgnored(t *testing.T) {
	m := metric.NewServerMetrics(metric.WithRegistry(prometheus.NewRegistry()))
	r := newIdleReactor(t, m)

	rw := &scriptedRW{}
	if _, err := r.Registry().Create(5, rw, "test"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	r.handleEvent(context.Background(), netpoll.Event{Token: 999, Readable: true})
	r.handleEvent(context.Background(), netpoll.Event{Token: 998, Hangup: true, Error: true})

	if got := testutil.ToFloat64(m.StaleEvents); got != 2 {
		t.Errorf("stale events = %v, want 2", got)
	}
	if _, ok := r.Registry().Get(5); !ok {
		t.Error("unrelated client was removed")
	}
	if rw.closed != 0 {
		t.Errorf("unrelated client closed %d times", rw.closed)
	}
}

func TestReactor_HangupRemovesClient(t *testing.T) {
	tests := []struct {
		name string
		ev   netpoll.Event
	}{
		{"hangup", netpoll.Event{Hangup: true}},
		{"error", netpoll.Event{Error: true}},
		{"readable hangup", netpoll.Event{Readable: true, Hangup: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metric.NewServerMetrics(metric.WithRegistry(prometheus.NewRegistry()))
			r := newIdleReactor(t, m)

			rw := &scriptedRW{}
			if _, err := r.Registry().Create(7, rw, "test"); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			ev := tt.ev
			ev.Token = 7
			r.handleEvent(context.Background(), ev)

			if _, ok := r.Registry().Get(7); ok {
				t.Error("client still registered after hang-up")
			}
			if rw.closed != 1 {
				t.Errorf("socket closed %d times, want 1", rw.closed)
			}
			if got := testutil.ToFloat64(m.ConnectionsClosed.WithLabelValues(reasonHangup)); got != 1 {
				t.Errorf("closed{hangup} = %v, want 1", got)
			}
		})
	}
}

func TestReactor_PollerFailureIsFatal(t *testing.T) {
	s := startServer(t, nil)
	c := dial(t, s)
	c.send("*1\r\n$4\r\nPING\r\n")
	c.expect("+PONG\r\n")

	r := s.Reactor()
	if err := r.poller.Close(); err != nil {
		t.Fatalf("poller.Close() error = %v", err)
	}

	select {
	case <-s.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after the poller failed")
	}
	if err := s.Err(); !errors.Is(err, ErrFatal) || !errors.Is(err, netpoll.ErrClosed) {
		t.Errorf("Err() = %v, want ErrFatal wrapping netpoll.ErrClosed", err)
	}
	if err := r.Err(); !errors.Is(err, ErrFatal) {
		t.Errorf("reactor Err() = %v, want ErrFatal", err)
	}
	if s.State() != StateStopped {
		t.Errorf("State() = %s, want stopped", s.State())
	}
	if n := s.Registry().Len(); n != 0 {
		t.Errorf("Registry().Len() = %d after fatal stop, want 0", n)
	}
	c.expectClosed()
}
