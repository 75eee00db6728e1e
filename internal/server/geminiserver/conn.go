package geminiserver

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yndnr/geminid/internal/core/domain"
	"github.com/yndnr/geminid/internal/telemetry/logger"
)

// readChunkSize is the size of each read while looking for CRLF.
const readChunkSize = 1024

var crlf = []byte("\r\n")

type connState int

const (
	stateHandshaking connState = iota
	stateReadingRequestLine
	stateValidating
	stateRouting
	stateServing
	stateResponding
	stateClosed
	stateErrored
)

func (s connState) String() string {
	switch s {
	case stateHandshaking:
		return "handshaking"
	case stateReadingRequestLine:
		return "reading_request_line"
	case stateValidating:
		return "validating"
	case stateRouting:
		return "routing"
	case stateServing:
		return "serving"
	case stateResponding:
		return "responding"
	case stateClosed:
		return "closed"
	case stateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// conn is one accepted connection. It is owned by a single goroutine.
type conn struct {
	srv     *Server
	raw     net.Conn
	tls     *tls.Conn
	id      string
	state   connState
	sni     string
	log     logger.Logger
	started time.Time
	closed  bool
}

func newConn(s *Server, raw net.Conn) *conn {
	id := logger.NewConnID()
	s.metrics.ConnOpened()
	return &conn{
		srv:     s,
		raw:     raw,
		id:      id,
		state:   stateHandshaking,
		log:     s.logger.With("conn_id", id, "remote", raw.RemoteAddr().String()),
		started: time.Now(),
	}
}

func (c *conn) serve(ctx context.Context) error {
	ctx = logger.WithConnID(logger.WithLogger(ctx, c.log), c.id)
	cfg := c.srv.cfg

	c.state = stateHandshaking
	c.tls = tls.Server(c.raw, c.srv.tlsConfig)
	if err := setDeadline(c.raw.SetDeadline, cfg.HandshakeTimeout); err != nil {
		return err
	}
	if err := c.tls.HandshakeContext(ctx); err != nil {
		c.srv.metrics.IncHandshakeFailure()
		return fmt.Errorf("tls handshake: %w", err)
	}
	c.sni = strings.ToLower(c.tls.ConnectionState().ServerName)
	c.log = c.log.With("sni", c.sni)

	c.state = stateReadingRequestLine
	if err := setDeadline(c.raw.SetDeadline, cfg.ReadTimeout); err != nil {
		return err
	}
	line, err := readRequestLine(c.tls, cfg.MaxRequestLine)
	if err != nil {
		return err
	}

	c.state = stateValidating
	u, err := domain.ValidateURL(line)
	if err != nil {
		return err
	}
	if cfg.StrictSNI && u.Host != c.sni {
		return domain.ErrHostMismatch.WithDetails(u.Host + " != " + c.sni)
	}
	path := domain.NormalizePath(u.Path)

	if err := setDeadline(c.raw.SetDeadline, cfg.WriteTimeout); err != nil {
		return err
	}

	c.state = stateRouting
	site, ok := c.srv.router.Route(u.Host)
	if !ok {
		return c.respond(u.Host, path, domain.NoSite(u.Host))
	}

	c.state = stateServing
	w := &responseWriter{w: c.tls}
	if err := site.Source.Serve(ctx, u.Host, path, w); err != nil {
		if w.n > 0 {
			return fmt.Errorf("serve %s%s after %d bytes: %w", u.Host, path, w.n, err)
		}
		c.log.Error("content source failed", "host", u.Host, "path", path, "error", err)
		return c.respond(u.Host, path, domain.ServerError())
	}

	c.state = stateResponding
	c.logRequest(u.Host, path, w.status())
	return nil
}

// respond writes a response formed by the server itself.
func (c *conn) respond(host, path string, resp *domain.Response) error {
	c.state = stateResponding
	if _, err := resp.WriteTo(c.tls); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	c.logRequest(host, path, resp.Status)
	return nil
}

func (c *conn) logRequest(host, path string, status uint8) {
	c.srv.metrics.RecordResponse(status)
	c.log.Info("request", "host", host, "path", path, "status", status)
}

// fail records err against the current state.
func (c *conn) fail(err error) {
	stage := c.state.String()
	c.state = stateErrored
	c.srv.metrics.RecordConnError(stage)

	if isPeerGone(err) {
		c.log.Debug("connection dropped", "stage", stage, "error", err)
		return
	}
	c.log.Warn("connection error", "stage", stage, "error", err)
}

// close releases the connection. It is safe to call more than once.
func (c *conn) close() {
	if c.closed {
		return
	}
	c.closed = true
	prev := c.state
	c.state = stateClosed

	if c.tls != nil {
		c.tls.Close()
	} else {
		c.raw.Close()
	}
	elapsed := time.Since(c.started)
	c.srv.metrics.ConnClosed(elapsed.Seconds())
	c.log.Debug("connection closed", "last_state", prev.String(), "duration", elapsed)
}

// readRequestLine reads r in fixed-size chunks until the accumulated
// bytes contain CRLF or the peer stops sending. It returns the text
// before the first CRLF. max <= 0 disables the length cap.
func readRequestLine(r io.Reader, max int) (string, error) {
	var buf []byte
	chunk := make([]byte, readChunkSize)

	for !bytes.Contains(buf, crlf) {
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if max > 0 && lineTooLong(buf, max) {
			return "", domain.ErrLineTooLong.WithDetails(fmt.Sprintf("more than %d bytes", max))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("read request: %w", err)
		}
		if n == 0 {
			break
		}
	}

	if !utf8.Valid(buf) {
		return "", domain.ErrInvalidEncoding.WithDetails("request is not valid UTF-8")
	}
	i := bytes.Index(buf, crlf)
	if i < 0 {
		return "", domain.ErrMissingCRLF
	}
	return string(buf[:i]), nil
}

func lineTooLong(buf []byte, max int) bool {
	i := bytes.Index(buf, crlf)
	if i < 0 {
		return len(buf) > max
	}
	return i > max
}

func setDeadline(set func(time.Time) error, d time.Duration) error {
	if d <= 0 {
		return set(time.Time{})
	}
	return set(time.Now().Add(d))
}

func isPeerGone(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrUnexpectedEOF)
}

// responseWriter counts bytes written and remembers the status code
// from the first two bytes.
type responseWriter struct {
	w    io.Writer
	n    int64
	head [2]byte
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	if rw.n < 2 {
		copy(rw.head[rw.n:], p)
	}
	n, err := rw.w.Write(p)
	rw.n += int64(n)
	return n, err
}

func (rw *responseWriter) status() uint8 {
	if rw.n < 2 || rw.head[0] < '0' || rw.head[0] > '9' || rw.head[1] < '0' || rw.head[1] > '9' {
		return 0
	}
	return (rw.head[0]-'0')*10 + rw.head[1] - '0'
}
