// Package netpoll wraps the operating system readiness multiplexer and the
// raw non-blocking TCP sockets the reactor drives.
//
// Linux uses epoll; other unix systems fall back to poll(2). Every
// registration carries a caller-chosen 64-bit token that is handed back in
// Event.Token, so the reactor never needs to map descriptors itself.
//
// Sockets are plain file descriptors. Reads return ErrWouldBlock instead of
// blocking, which lets a single goroutine serve many peers.
package netpoll
