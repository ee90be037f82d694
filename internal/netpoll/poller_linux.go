package netpoll

import (
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// Poller is an epoll instance in level-triggered mode.
type Poller struct {
	epfd   int
	raw    []unix.EpollEvent
	closed atomic.Bool
}

// New creates a poller that reports at most maxEvents notifications per Wait.
func New(maxEvents int) (*Poller, error) {
	if maxEvents <= 0 {
		maxEvents = 1024
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	return &Poller{
		epfd: epfd,
		raw:  make([]unix.EpollEvent, maxEvents),
	}, nil
}

// Add registers fd for read readiness under token.
func (p *Poller) Add(fd int, token uint64) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLRDHUP}
	ev.Fd = int32(uint32(token))
	ev.Pad = int32(uint32(token >> 32))
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return os.NewSyscallError("epoll_ctl", err)
	}
	return nil
}

// Remove deregisters fd. Removing an unknown descriptor is an error.
func (p *Poller) Remove(fd int) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return os.NewSyscallError("epoll_ctl", err)
	}
	return nil
}

// Wait blocks for at most timeout and fills events. A negative timeout waits
// forever. An interrupted wait returns 0 events and no error.
func (p *Poller) Wait(events []Event, timeout time.Duration) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	raw := p.raw
	if len(events) < len(raw) {
		raw = raw[:len(events)]
	}
	n, err := unix.EpollWait(p.epfd, raw, timeoutMillis(timeout))
	if err == unix.EINTR {
		return 0, nil
	}
	if err != nil {
		return 0, os.NewSyscallError("epoll_wait", err)
	}
	for i := 0; i < n; i++ {
		e := raw[i]
		events[i] = Event{
			Token:    uint64(uint32(e.Fd)) | uint64(uint32(e.Pad))<<32,
			Readable: e.Events&(unix.EPOLLIN|unix.EPOLLPRI) != 0,
			Writable: e.Events&unix.EPOLLOUT != 0,
			Hangup:   e.Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0,
			Error:    e.Events&unix.EPOLLERR != 0,
		}
	}
	return n, nil
}

// Close releases the epoll descriptor.
func (p *Poller) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(p.epfd)
}
