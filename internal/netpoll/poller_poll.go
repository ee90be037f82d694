//go:build unix && !linux

package netpoll

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// Poller multiplexes descriptors with poll(2).
type Poller struct {
	fds    []unix.PollFd
	tokens []uint64
	index  map[int]int
	max    int
	closed atomic.Bool
}

// New creates a poller that reports at most maxEvents notifications per Wait.
func New(maxEvents int) (*Poller, error) {
	if maxEvents <= 0 {
		maxEvents = 1024
	}
	return &Poller{index: make(map[int]int), max: maxEvents}, nil
}

// Add registers fd for read readiness under token.
func (p *Poller) Add(fd int, token uint64) error {
	if _, ok := p.index[fd]; ok {
		return fmt.Errorf("netpoll: fd %d already registered", fd)
	}
	p.index[fd] = len(p.fds)
	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	p.tokens = append(p.tokens, token)
	return nil
}

// Remove deregisters fd. Removing an unknown descriptor is an error.
func (p *Poller) Remove(fd int) error {
	i, ok := p.index[fd]
	if !ok {
		return fmt.Errorf("netpoll: fd %d not registered", fd)
	}
	last := len(p.fds) - 1
	if i != last {
		p.fds[i] = p.fds[last]
		p.tokens[i] = p.tokens[last]
		p.index[int(p.fds[i].Fd)] = i
	}
	p.fds = p.fds[:last]
	p.tokens = p.tokens[:last]
	delete(p.index, fd)
	return nil
}

// Wait blocks for at most timeout and fills events. A negative timeout waits
// forever. An interrupted wait returns 0 events and no error.
func (p *Poller) Wait(events []Event, timeout time.Duration) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	ready, err := unix.Poll(p.fds, timeoutMillis(timeout))
	if err == unix.EINTR {
		return 0, nil
	}
	if err != nil {
		return 0, os.NewSyscallError("poll", err)
	}

	limit := len(events)
	if limit > p.max {
		limit = p.max
	}
	n := 0
	for i := range p.fds {
		if ready == 0 || n == limit {
			break
		}
		re := p.fds[i].Revents
		if re == 0 {
			continue
		}
		ready--
		events[n] = Event{
			Token:    p.tokens[i],
			Readable: re&(unix.POLLIN|unix.POLLPRI) != 0,
			Writable: re&unix.POLLOUT != 0,
			Hangup:   re&unix.POLLHUP != 0,
			Error:    re&(unix.POLLERR|unix.POLLNVAL) != 0,
		}
		p.fds[i].Revents = 0
		n++
	}
	return n, nil
}

// Close releases the poller.
func (p *Poller) Close() error {
	p.closed.Store(true)
	return nil
}
