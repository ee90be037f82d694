//go:build unix

package netpoll

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

var (
	// ErrWouldBlock is returned by non-blocking operations that cannot make
	// progress right now.
	ErrWouldBlock = errors.New("netpoll: operation would block")

	// ErrWriteTimeout is returned when a socket stays unwritable past its
	// write timeout.
	ErrWriteTimeout = errors.New("netpoll: write timeout")

	// ErrClosed is returned for operations on a closed poller or socket.
	ErrClosed = errors.New("netpoll: use of closed descriptor")
)

// Event is one readiness notification.
type Event struct {
	Token    uint64
	Readable bool
	Writable bool
	// Hangup is set when the peer closed its side of the connection.
	Hangup bool
	// Error is set when the descriptor is in an error state.
	Error bool
}

// IsTemporary reports whether err from Accept can be ignored and the accept
// burst continued.
func IsTemporary(err error) bool {
	return errors.Is(err, unix.EINTR) ||
		errors.Is(err, unix.ECONNABORTED) ||
		errors.Is(err, unix.EPROTO)
}

// IsResourceExhausted reports whether err from Accept is caused by the
// process or system running out of descriptors or buffers.
func IsResourceExhausted(err error) bool {
	return errors.Is(err, unix.EMFILE) ||
		errors.Is(err, unix.ENFILE) ||
		errors.Is(err, unix.ENOBUFS) ||
		errors.Is(err, unix.ENOMEM)
}

// timeoutMillis converts d for epoll_wait/poll. Sub-millisecond waits round up
// to 1ms and a negative d waits forever.
func timeoutMillis(d time.Duration) int {
	switch {
	case d < 0:
		return -1
	case d == 0:
		return 0
	case d < time.Millisecond:
		return 1
	default:
		return int(d / time.Millisecond)
	}
}
