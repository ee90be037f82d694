package redisserver

import (
	"errors"

	"github.com/yndnr/rudis-go/internal/netpoll"
)

var (
	// ErrProtocol is returned when a well-formed frame is not a valid request.
	ErrProtocol = errors.New("redisserver: protocol error")

	// ErrWouldBlock means the socket has no more bytes right now. A partial
	// frame, if any, stays buffered.
	ErrWouldBlock = netpoll.ErrWouldBlock

	// ErrConnReset is returned when the peer closes mid-frame.
	ErrConnReset = errors.New("redisserver: connection reset by peer")

	// ErrEndOfStream is returned by Parser when a required field is missing.
	ErrEndOfStream = errors.New("redisserver: end of stream")

	// ErrTrailingFields is returned when a command has more arguments than it takes.
	ErrTrailingFields = errors.New("redisserver: unexpected trailing fields")

	// ErrClientExists is returned by Registry.Create for an id already in use.
	ErrClientExists = errors.New("redisserver: client id already registered")

	// ErrCommandExists is returned by CommandTable.Register for a taken name.
	ErrCommandExists = errors.New("redisserver: command already registered")

	// ErrFatal wraps reactor failures the process cannot recover from.
	ErrFatal = errors.New("redisserver: fatal reactor error")

	// ErrServerClosed is returned by Start after Shutdown and by Run on a
	// stopped reactor.
	ErrServerClosed = errors.New("redisserver: server closed")
)
