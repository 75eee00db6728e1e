package connection

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultPort is the Gemini port used when a URL names none.
const DefaultPort = "1965"

// maxHeaderLen covers a two-digit status, a space, a 1024-byte meta and CRLF.
const maxHeaderLen = 2 + 1 + 1024 + 2

var (
	ErrNotGemini       = errors.New("not a gemini URL")
	ErrMalformedHeader = errors.New("malformed response header")
)

// Response is a parsed Gemini response.
type Response struct {
	Status int
	Meta   string
	Body   []byte
}

// Header returns the response header line without CRLF.
func (r *Response) Header() string {
	if r.Meta == "" {
		return fmt.Sprintf("%02d", r.Status)
	}
	return fmt.Sprintf("%02d %s", r.Status, r.Meta)
}

// GeminiClient fetches gemini:// URLs.
type GeminiClient struct {
	tlsConfig *tls.Config
	timeout   time.Duration
}

// NewGeminiClient returns a client using tlsConfig, or one that skips
// certificate verification if tlsConfig is nil. A zero timeout means
// the request is bounded only by the caller's context.
func NewGeminiClient(tlsConfig *tls.Config, timeout time.Duration) *GeminiClient {
	if tlsConfig == nil {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: true,
			MinVersion:         tls.VersionTLS12,
		}
	}
	return &GeminiClient{tlsConfig: tlsConfig, timeout: timeout}
}

// Fetch sends rawURL as a request line and reads the whole response.
func (c *GeminiClient) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	addr, host, err := dialTarget(rawURL)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, addr, host, rawURL+"\r\n")
}

// Do connects to addr with SNI name serverName, writes line verbatim
// and reads the response. It lets callers send malformed requests.
func (c *GeminiClient) Do(ctx context.Context, addr, serverName, line string) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cfg := c.tlsConfig.Clone()
	if cfg.ServerName == "" {
		cfg.ServerName = serverName
	}

	dialer := &tls.Dialer{Config: cfg}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if _, err := io.WriteString(conn, line); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return ReadResponse(conn)
}

// ReadResponse parses a header line followed by the body from r.
func ReadResponse(r io.Reader) (*Response, error) {
	br := bufio.NewReaderSize(r, maxHeaderLen)
	line, err := br.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			return nil, fmt.Errorf("%w: header too long", ErrMalformedHeader)
		}
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: connection closed before header", ErrMalformedHeader)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	resp, err := ParseHeader(string(line))
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return resp, fmt.Errorf("read body: %w", err)
	}
	resp.Body = body
	return resp, nil
}

// ParseHeader parses "<status> <meta>\r\n".
func ParseHeader(line string) (*Response, error) {
	if !strings.HasSuffix(line, "\r\n") {
		return nil, fmt.Errorf("%w: missing CRLF", ErrMalformedHeader)
	}
	line = strings.TrimSuffix(line, "\r\n")

	if len(line) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}
	status, err := strconv.Atoi(line[:2])
	if err != nil || line[0] < '1' || line[0] > '6' {
		return nil, fmt.Errorf("%w: bad status %q", ErrMalformedHeader, line[:2])
	}

	rest := line[2:]
	if rest != "" && rest[0] != ' ' {
		return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}
	return &Response{Status: status, Meta: strings.TrimPrefix(rest, " ")}, nil
}

// dialTarget returns the host:port to dial and the SNI name for rawURL.
func dialTarget(rawURL string) (addr, host string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse %s: %w", rawURL, err)
	}
	if u.Scheme != "gemini" {
		return "", "", fmt.Errorf("%w: %s", ErrNotGemini, rawURL)
	}
	host = u.Hostname()
	if host == "" {
		return "", "", fmt.Errorf("%w: %s has no host", ErrNotGemini, rawURL)
	}
	port := u.Port()
	if port == "" {
		port = DefaultPort
	}
	return net.JoinHostPort(host, port), host, nil
}
