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

// Handler handles graceful shutdown and reload signals.
type Handler struct {
	timeout time.Duration

	mu      sync.Mutex
	hooks   []func(context.Context) error
	reloads []func()

	once sync.Once
	done chan struct{}
}

// NewHandler creates a shutdown handler whose hooks share timeout.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		hooks:   make([]func(context.Context) error, 0),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// OnReload registers a hook run on SIGHUP, in registration order.
func (h *Handler) OnReload(hook func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloads = append(h.reloads, hook)
}

// Wait blocks until SIGINT, SIGTERM or ctx is done, then runs the
// shutdown hooks. SIGHUP received meanwhile runs the reload hooks.
func (h *Handler) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				h.Reload()
				continue
			}
		case <-ctx.Done():
		}
		return h.Shutdown()
	}
}

// Reload runs the reload hooks.
func (h *Handler) Reload() {
	h.mu.Lock()
	reloads := append(([]func())(nil), h.reloads...)
	h.mu.Unlock()

	for _, r := range reloads {
		r()
	}
}

// Shutdown runs the shutdown hooks once and returns their joined errors.
// Later calls return nil.
func (h *Handler) Shutdown() error {
	var err error
	h.once.Do(func() {
		defer close(h.done)

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := append([]func(context.Context) error(nil), h.hooks...)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			if herr := hooks[i](ctx); herr != nil {
				errs = append(errs, herr)
			}
		}
		err = errors.Join(errs...)
	})
	return err
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
