package geminiserver

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/geminid/internal/core/service"
	"github.com/yndnr/geminid/internal/infra/tlscert"
	"github.com/yndnr/geminid/internal/telemetry/logger"
	"github.com/yndnr/geminid/internal/telemetry/metric"
)

// Config holds the Gemini server configuration.
//
// Zero timeouts and a zero MaxRequestLine mean no limit.
type Config struct {
	// Addr is the TCP address to listen on.
	Addr string
	// HandshakeTimeout bounds the TLS handshake.
	HandshakeTimeout time.Duration
	// ReadTimeout bounds reading the request line.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration
	// MaxRequestLine caps the bytes read before a CRLF must appear.
	MaxRequestLine int
	// StrictSNI drops requests whose host differs from the TLS server name.
	StrictSNI bool
	// KeyLog receives TLS session secrets in NSS key log format.
	KeyLog io.Writer
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr: "0.0.0.0:1965",
	}
}

// Server accepts TLS connections and answers Gemini requests.
type Server struct {
	cfg       *Config
	router    *service.Router
	tlsConfig *tls.Config
	metrics   *metric.Registry
	logger    logger.Logger

	mu      sync.Mutex
	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a server. metrics may be nil.
func New(cfg *Config, router *service.Router, resolver *tlscert.Resolver, metrics *metric.Registry, log logger.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.Default()
	}

	return &Server{
		cfg:       cfg,
		router:    router,
		tlsConfig: resolver.ServerConfig(cfg.KeyLog),
		metrics:   metrics,
		logger:    log,
	}
}

// Start listens on the configured address and serves in the background.
// It returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Serve(ctx, ln); err != nil {
			s.logger.Error("gemini server error", "error", err)
		}
	}()
	return nil
}

// Serve accepts connections on ln until it is closed or ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	s.logger.Info("gemini server listening",
		"address", ln.Addr().String(),
		"sites", s.router.Len())

	stop := context.AfterFunc(ctx, func() {
		s.running.Store(false)
		ln.Close()
	})
	defer stop()

	return s.acceptLoop(ctx, ln)
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown closes the listener and waits for in-flight connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var err error
	s.mu.Lock()
	if s.ln != nil {
		if cerr := s.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	var backoff time.Duration
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			backoff = nextBackoff(backoff)
			s.logger.Warn("accept error, retrying", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(ctx, c)
		}()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}

// ServeConn runs the full lifecycle of one raw connection and closes it.
// Errors are logged and never returned.
func (s *Server) ServeConn(ctx context.Context, raw net.Conn) {
	c := newConn(s, raw)
	defer c.close()

	if err := c.serve(ctx); err != nil {
		c.fail(err)
	}
}
