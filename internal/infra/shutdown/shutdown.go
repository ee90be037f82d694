package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler handles graceful shutdown.
type Handler struct {
	timeout  time.Duration
	hooks    []func(context.Context) error
	mu       sync.Mutex
	trigger  chan struct{}
	once     sync.Once
	done     chan struct{}
	signals  []os.Signal
	received os.Signal
}

// NewHandler creates a new shutdown handler.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		hooks:   make([]func(context.Context) error, 0),
		trigger: make(chan struct{}),
		done:    make(chan struct{}),
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Trigger starts shutdown without a signal. Safe to call more than once.
func (h *Handler) Trigger() {
	h.once.Do(func() { close(h.trigger) })
}

// Wait blocks until a termination signal arrives, ctx is cancelled or
// Trigger is called, then runs the hooks. Errors from all hooks are joined.
func (h *Handler) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, h.signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		h.mu.Lock()
		h.received = sig
		h.mu.Unlock()
	case <-ctx.Done():
	case <-h.trigger:
	}

	return h.run()
}

// Signal returns the signal that started shutdown, or nil.
func (h *Handler) Signal() os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received
}

func (h *Handler) run() error {
	defer close(h.done)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]func(context.Context) error, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// ReloadHandler runs callbacks when the process receives SIGHUP.
type ReloadHandler struct {
	mu        sync.Mutex
	callbacks []func()
	sigCh     chan os.Signal
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewReloadHandler creates a reload handler and starts listening for SIGHUP.
func NewReloadHandler() *ReloadHandler {
	r := &ReloadHandler{
		sigCh: make(chan os.Signal, 1),
		stop:  make(chan struct{}),
	}
	signal.Notify(r.sigCh, syscall.SIGHUP)
	go r.loop()
	return r
}

// OnReload registers a callback.
func (r *ReloadHandler) OnReload(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, fn)
}

// Reload runs all callbacks synchronously.
func (r *ReloadHandler) Reload() {
	r.mu.Lock()
	callbacks := make([]func(), len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Stop stops listening for SIGHUP.
func (r *ReloadHandler) Stop() {
	r.stopOnce.Do(func() {
		signal.Stop(r.sigCh)
		close(r.stop)
	})
}

func (r *ReloadHandler) loop() {
	for {
		select {
		case <-r.sigCh:
			r.Reload()
		case <-r.stop:
			return
		}
	}
}
