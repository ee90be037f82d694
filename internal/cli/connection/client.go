package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/yndnr/rudis-go/internal/resp"
)

// DefaultTimeout bounds dialing and each request when the caller's context
// has no deadline.
const DefaultTimeout = 5 * time.Second

// ErrClosed is returned when using a closed client.
var ErrClosed = errors.New("connection: client closed")

// Client sends commands to a rudis server and reads their replies.
// Requests are serialized; a Client may be shared between goroutines.
type Client struct {
	addr    string
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	buf    []byte
	wbuf   []byte
	closed bool
}

// Dial connects to addr (host:port).
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{
		addr:    addr,
		timeout: timeout,
		conn:    conn,
		buf:     make([]byte, 0, 4096),
	}, nil
}

// Addr returns the server address.
func (c *Client) Addr() string { return c.addr }

// Do sends a command built from args and returns the reply.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Frame, error) {
	replies, err := c.Pipeline(ctx, resp.Command(args...))
	if err != nil {
		return nil, err
	}
	return replies[0], nil
}

// Pipeline writes all requests in one flush and reads one reply per request.
func (c *Client) Pipeline(ctx context.Context, reqs ...resp.Array) ([]resp.Frame, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now())
	})
	defer stop()

	out := c.wbuf[:0]
	for _, req := range reqs {
		var err error
		if out, err = resp.AppendFrame(out, req); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}
	c.wbuf = out
	if _, err := c.conn.Write(out); err != nil {
		return nil, c.wrap(ctx, "write", err)
	}

	replies := make([]resp.Frame, 0, len(reqs))
	for range reqs {
		f, err := c.readReply()
		if err != nil {
			return nil, c.wrap(ctx, "read", err)
		}
		replies = append(replies, f)
	}
	return replies, nil
}

// Ping checks that the server answers PONG.
func (c *Client) Ping(ctx context.Context) error {
	f, err := c.Do(ctx, "PING")
	if err != nil {
		return err
	}
	if err := ReplyError(f); err != nil {
		return err
	}
	if s, ok := f.(resp.Simple); !ok || s != "PONG" {
		return fmt.Errorf("connection: unexpected PING reply %s", f)
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Client) readReply() (resp.Frame, error) {
	for {
		if len(c.buf) > 0 {
			f, n, err := resp.Parse(c.buf)
			if err == nil {
				rest := copy(c.buf, c.buf[n:])
				c.buf = c.buf[:rest]
				return f, nil
			}
			if !errors.Is(err, resp.ErrIncomplete) {
				return nil, err
			}
		}

		if len(c.buf) == cap(c.buf) {
			grown := make([]byte, len(c.buf), 2*cap(c.buf))
			copy(grown, c.buf)
			c.buf = grown
		}
		n, err := c.conn.Read(c.buf[len(c.buf):cap(c.buf)])
		c.buf = c.buf[:len(c.buf)+n]
		if err != nil && n == 0 {
			return nil, err
		}
	}
}

// wrap reports a cancelled context in place of the deadline error it caused.
// The connection is unusable after an I/O failure and is closed.
func (c *Client) wrap(ctx context.Context, op string, err error) error {
	c.closed = true
	c.conn.Close()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s %s: %w", op, c.addr, ctxErr)
	}
	return fmt.Errorf("%s %s: %w", op, c.addr, err)
}

// ReplyError returns the server error carried by f, or nil.
func ReplyError(f resp.Frame) error {
	if e, ok := f.(resp.Error); ok {
		return e
	}
	return nil
}
