//go:build unix

package netpoll

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultWriteTimeout bounds how long Write waits for a full send buffer to drain.
const DefaultWriteTimeout = 5 * time.Second

// Listener is a non-blocking TCP listening socket.
type Listener struct {
	fd     int
	addr   *net.TCPAddr
	closed atomic.Bool
}

// Listen binds a non-blocking TCP listener on host:port. Port 0 picks a free
// port; Addr reports the one chosen.
func Listen(host string, port, backlog int) (*Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("resolve %s:%d: %w", host, port, err)
	}
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}

	family, sa, err := sockaddr(tcpAddr)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(family, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	unix.CloseOnExec(fd)

	if err := setupListener(fd, sa, backlog); err != nil {
		unix.Close(fd)
		return nil, err
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("getsockname", err)
	}
	return &Listener{fd: fd, addr: tcpAddrOf(bound)}, nil
}

func setupListener(fd int, sa unix.Sockaddr, backlog int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return os.NewSyscallError("setnonblock", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		return os.NewSyscallError("bind", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return os.NewSyscallError("listen", err)
	}
	return nil
}

// FD returns the listening descriptor.
func (l *Listener) FD() int { return l.fd }

// Addr returns the bound address.
func (l *Listener) Addr() *net.TCPAddr { return l.addr }

// Accept takes one pending connection. It returns ErrWouldBlock when the
// backlog is empty. The returned socket is already non-blocking.
func (l *Listener) Accept() (*Socket, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}
	fd, sa, err := accept(l.fd)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return nil, ErrWouldBlock
	}
	if err != nil {
		return nil, os.NewSyscallError("accept", err)
	}
	return newSocket(fd, tcpAddrOf(sa)), nil
}

// Close closes the listening descriptor.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(l.fd)
}

// Socket is a connected non-blocking TCP socket. It implements io.ReadWriteCloser.
type Socket struct {
	fd           int
	remote       *net.TCPAddr
	writeTimeout time.Duration
	closed       atomic.Bool
}

func newSocket(fd int, remote *net.TCPAddr) *Socket {
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	return &Socket{fd: fd, remote: remote, writeTimeout: DefaultWriteTimeout}
}

// FD returns the socket descriptor.
func (s *Socket) FD() int { return s.fd }

// RemoteAddr returns the peer address, or nil if unknown.
func (s *Socket) RemoteAddr() *net.TCPAddr { return s.remote }

// SetWriteTimeout changes how long Write waits for buffer space.
// Zero or negative restores DefaultWriteTimeout.
func (s *Socket) SetWriteTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultWriteTimeout
	}
	s.writeTimeout = d
}

// Read reads whatever is available. It returns ErrWouldBlock when nothing is,
// and io.EOF once the peer has closed its side.
func (s *Socket) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	for {
		n, err := unix.Read(s.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return 0, ErrWouldBlock
		case err != nil:
			return 0, os.NewSyscallError("read", err)
		case n == 0 && len(p) > 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write writes all of p. When the send buffer is full it waits for
// writability, up to the write timeout.
func (s *Socket) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	written := 0
	for written < len(p) {
		n, err := unix.Write(s.fd, p[written:])
		if n > 0 {
			written += n
		}
		switch {
		case err == nil:
		case err == unix.EINTR:
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			if err := s.waitWritable(); err != nil {
				return written, err
			}
		default:
			return written, os.NewSyscallError("write", err)
		}
	}
	return written, nil
}

func (s *Socket) waitWritable() error {
	deadline := time.Now().Add(s.writeTimeout)
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLOUT}}
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return ErrWriteTimeout
		}
		n, err := unix.Poll(fds, timeoutMillis(left))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return os.NewSyscallError("poll", err)
		}
		if n > 0 {
			return nil
		}
	}
}

// Close closes the descriptor. Closing twice is a no-op.
func (s *Socket) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(s.fd)
}

func sockaddr(addr *net.TCPAddr) (int, unix.Sockaddr, error) {
	if addr.IP == nil {
		return unix.AF_INET, &unix.SockaddrInet4{Port: addr.Port}, nil
	}
	if ip4 := addr.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)
		return unix.AF_INET, sa, nil
	}
	if ip6 := addr.IP.To16(); ip6 != nil {
		sa := &unix.SockaddrInet6{Port: addr.Port}
		copy(sa.Addr[:], ip6)
		return unix.AF_INET6, sa, nil
	}
	return 0, nil, fmt.Errorf("netpoll: unsupported address %s", addr)
}

func tcpAddrOf(sa unix.Sockaddr) *net.TCPAddr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IPv4(a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3]), Port: a.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, a.Addr[:])
		return &net.TCPAddr{IP: ip, Port: a.Port}
	default:
		return nil
	}
}
