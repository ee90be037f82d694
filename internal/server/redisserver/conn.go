package redisserver

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/yndnr/rudis-go/internal/resp"
)

const (
	// DefaultReadBufferSize is the initial capacity of a connection's read buffer.
	DefaultReadBufferSize = 4 * 1024

	// DefaultQueryBufferLimit caps the unparsed input held for one client.
	DefaultQueryBufferLimit = 1024 * 1024 * 1024

	// maxRetainedWriteBuf caps the write buffer kept between replies.
	maxRetainedWriteBuf = 64 * 1024
)

// Conn is one client socket plus its accumulated read buffer.
//
// After every ReadFrame the buffer holds zero or more whole frames followed by
// at most one incomplete prefix; consumed bytes are dropped exactly.
type Conn struct {
	rw   io.ReadWriteCloser
	addr string

	buf    []byte // buffered input is buf[off:]
	off    int
	maxBuf int // 0 means unlimited
	cur    resp.Cursor

	wbuf []byte

	closed atomic.Bool
}

// NewConn wraps rw. A non-blocking rw should return ErrWouldBlock from Read
// when it has nothing to offer.
func NewConn(rw io.ReadWriteCloser, addr string, bufSize int) *Conn {
	if bufSize <= 0 {
		bufSize = DefaultReadBufferSize
	}
	return &Conn{
		rw:     rw,
		addr:   addr,
		buf:    make([]byte, 0, bufSize),
		maxBuf: DefaultQueryBufferLimit,
	}
}

// SetQueryBufferLimit caps the bytes buffered while a frame is incomplete.
// Past it ReadFrame fails with an error matching resp.ErrLimitExceeded.
// n <= 0 removes the cap.
func (c *Conn) SetQueryBufferLimit(n int) {
	if n < 0 {
		n = 0
	}
	c.maxBuf = n
}

// RemoteAddr returns the peer address given at construction.
func (c *Conn) RemoteAddr() string { return c.addr }

// Buffered returns the number of unconsumed bytes.
func (c *Conn) Buffered() int { return len(c.buf) - c.off }

// ReadFrame returns the next request frame.
//
// It returns (nil, nil) when the peer closed the stream cleanly between
// frames, ErrConnReset when it closed mid-frame, and ErrWouldBlock when a
// non-blocking socket has no more bytes yet.
func (c *Conn) ReadFrame() (resp.Frame, error) {
	for {
		f, err := c.parseFrame()
		if err != nil {
			return nil, err
		}
		if f != nil {
			return f, nil
		}

		n, err := c.fill()
		if n > 0 {
			continue
		}
		if err == nil || errors.Is(err, io.EOF) {
			if c.Buffered() == 0 {
				return nil, nil
			}
			return nil, ErrConnReset
		}
		return nil, err
	}
}

// parseFrame decodes one frame from the buffer, or returns (nil, nil) when
// the buffer does not yet hold a whole frame.
func (c *Conn) parseFrame() (resp.Frame, error) {
	data := c.buf[c.off:]
	if len(data) == 0 {
		return nil, nil
	}

	c.cur.Reset(data)
	if err := resp.Check(&c.cur); err != nil {
		if errors.Is(err, resp.ErrIncomplete) {
			return nil, nil
		}
		return nil, err
	}

	c.cur.SetPosition(0)
	f, err := resp.Decode(&c.cur)
	if err != nil {
		return nil, err
	}
	c.off += c.cur.Position()
	if c.off == len(c.buf) {
		c.buf = c.buf[:0]
		c.off = 0
	}
	return f, nil
}

// fill performs one read into the free tail of the buffer.
func (c *Conn) fill() (int, error) {
	if c.off > 0 {
		n := copy(c.buf, c.buf[c.off:])
		c.buf = c.buf[:n]
		c.off = 0
	}
	if len(c.buf) == cap(c.buf) {
		if c.maxBuf > 0 && len(c.buf) >= c.maxBuf {
			return 0, fmt.Errorf("%w: query buffer exceeds %d bytes", resp.ErrLimitExceeded, c.maxBuf)
		}
		size := 2 * cap(c.buf)
		if c.maxBuf > 0 && size > c.maxBuf {
			size = c.maxBuf
		}
		grown := make([]byte, len(c.buf), size)
		copy(grown, c.buf)
		c.buf = grown
	}

	n, err := c.rw.Read(c.buf[len(c.buf):cap(c.buf)])
	if n > 0 {
		c.buf = c.buf[:len(c.buf)+n]
	}
	return n, err
}

// WriteFrame encodes f and writes it in a single flush.
func (c *Conn) WriteFrame(f resp.Frame) error {
	out, err := resp.AppendFrame(c.wbuf[:0], f)
	if err != nil {
		return err
	}
	_, err = c.rw.Write(out)
	if cap(out) > maxRetainedWriteBuf {
		out = nil
	}
	c.wbuf = out
	return err
}

// Close closes the socket. Closing twice is a no-op.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.rw.Close()
}
