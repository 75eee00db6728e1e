package domain

import (
	"context"
	"io"
	"strings"
)

// ContentSource produces the response for a path on a site.
//
// Serve must write a complete framed response to w or return an error.
// A source that returns an error before writing anything lets the caller
// answer with ServerError; once bytes are written the caller can only
// close the connection.
type ContentSource interface {
	Serve(ctx context.Context, host, path string, w io.Writer) error
}

// ContentSourceFunc adapts a function to ContentSource.
type ContentSourceFunc func(ctx context.Context, host, path string, w io.Writer) error

// Serve calls f.
func (f ContentSourceFunc) Serve(ctx context.Context, host, path string, w io.Writer) error {
	return f(ctx, host, path, w)
}

// VirtualSite is one configured host.
//
// Sites are built once at startup and never mutated afterwards.
type VirtualSite struct {
	// Host is the exact, case-sensitive routing key.
	Host string
	// CertFile and KeyFile locate the PEM key pair presented for Host.
	CertFile string
	KeyFile  string
	// Source resolves request paths to responses.
	Source ContentSource
}

// Validate checks the site's required fields.
func (s *VirtualSite) Validate() error {
	if s.Host == "" {
		return ErrSiteInvalid.WithDetails("host is required")
	}
	if strings.ContainsAny(s.Host, "/@ ") {
		return ErrSiteInvalid.WithDetails("host " + s.Host + " is not a bare hostname")
	}
	if s.Source == nil {
		return ErrSiteInvalid.WithDetails("site " + s.Host + " has no content source")
	}
	return nil
}
