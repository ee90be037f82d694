package logger

import (
	"io"
	"sync"
	"sync/atomic"
)

// DefaultAsyncBufferSize is the number of pending lines an AsyncWriter holds.
const DefaultAsyncBufferSize = 4096

// AsyncWriter hands lines to a background goroutine. When its queue is full
// the line is dropped and counted; Write never blocks.
type AsyncWriter struct {
	out     io.Writer
	ch      chan []byte
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewAsyncWriter starts a writer that forwards to out.
func NewAsyncWriter(out io.Writer, size int) *AsyncWriter {
	if size <= 0 {
		size = DefaultAsyncBufferSize
	}
	w := &AsyncWriter{
		out:  out,
		ch:   make(chan []byte, size),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *AsyncWriter) loop() {
	defer close(w.done)
	for line := range w.ch {
		_, _ = w.out.Write(line)
	}
}

// Write queues a copy of p. It always reports success.
func (w *AsyncWriter) Write(p []byte) (int, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.dropped.Add(1)
		return len(p), nil
	}

	line := make([]byte, len(p))
	copy(line, p)
	select {
	case w.ch <- line:
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

// Dropped returns the number of lines discarded so far.
func (w *AsyncWriter) Dropped() uint64 {
	return w.dropped.Load()
}

// Close flushes queued lines and stops the background goroutine.
func (w *AsyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
	w.mu.Unlock()
	<-w.done
	return nil
}
