package redisserver

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Client is a connected peer. It is created together with its registry entry
// and destroyed together with it.
type Client struct {
	ID        uint64
	Addr      string
	CreatedAt time.Time

	conn    *Conn
	fd      int
	limiter *rate.Limiter
	current atomic.Value // string
}

// Conn returns the client's connection.
func (c *Client) Conn() *Conn { return c.conn }

// FD returns the socket descriptor, or -1 when the connection is not backed
// by one.
func (c *Client) FD() int { return c.fd }

// CurrentCommand returns the verb being applied, or "" between commands.
func (c *Client) CurrentCommand() string {
	s, _ := c.current.Load().(string)
	return s
}

func (c *Client) setCurrent(name string) { c.current.Store(name) }

// Allow reports whether the client may run another command now.
func (c *Client) Allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// Close closes the client's connection.
func (c *Client) Close() error { return c.conn.Close() }

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithReadBufferSize sets the initial read buffer of new connections.
func WithReadBufferSize(n int) RegistryOption {
	return func(r *Registry) {
		r.bufSize = n
	}
}

// WithQueryBufferLimit caps the unparsed input of new connections.
// n <= 0 removes the cap.
func WithQueryBufferLimit(n int) RegistryOption {
	return func(r *Registry) {
		r.maxBuf = n
	}
}

// WithRateLimit gives every new client a token bucket of perSecond commands
// with the given burst. perSecond <= 0 disables limiting.
func WithRateLimit(perSecond float64, burst int) RegistryOption {
	return func(r *Registry) {
		r.limit = rate.Limit(perSecond)
		r.burst = burst
	}
}

// Registry maps client ids to clients. A single mutex guards the map and is
// never held across socket I/O.
type Registry struct {
	mu      sync.Mutex
	clients map[uint64]*Client

	bufSize int
	maxBuf  int
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		clients: make(map[uint64]*Client),
		bufSize: DefaultReadBufferSize,
		maxBuf:  DefaultQueryBufferLimit,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new client owning a new connection over rw.
// It fails with ErrClientExists if id is taken; rw is not closed in that case.
func (r *Registry) Create(id uint64, rw io.ReadWriteCloser, addr string) (*Client, error) {
	c := &Client{
		ID:        id,
		Addr:      addr,
		CreatedAt: r.now(),
		conn:      NewConn(rw, addr, r.bufSize),
		fd:        -1,
	}
	c.conn.SetQueryBufferLimit(r.maxBuf)
	if s, ok := rw.(interface{ FD() int }); ok {
		c.fd = s.FD()
	}
	if r.limit > 0 {
		burst := r.burst
		if burst <= 0 {
			burst = int(r.limit) + 1
		}
		c.limiter = rate.NewLimiter(r.limit, burst)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; ok {
		return nil, fmt.Errorf("%w: %d", ErrClientExists, id)
	}
	r.clients[id] = c
	return c, nil
}

// Remove deregisters id and returns the removed client. Removing an absent id
// is a no-op.
func (r *Registry) Remove(id uint64) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if ok {
		delete(r.clients, id)
	}
	return c, ok
}

// Get looks up id. A miss is a normal outcome.
func (r *Registry) Get(id uint64) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	return c, ok
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Snapshot returns the registered clients ordered by id.
func (r *Registry) Snapshot() []*Client {
	r.mu.Lock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
