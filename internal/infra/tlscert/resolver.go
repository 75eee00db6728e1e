package tlscert

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var (
	// ErrNoServerName is returned when the client sent no SNI extension.
	ErrNoServerName = errors.New("tlscert: client did not send a server name")

	// ErrUnknownServerName is returned when no certificate is configured for the SNI name.
	ErrUnknownServerName = errors.New("tlscert: no certificate for server name")
)

// Resolver selects the certificate to present from the SNI server name.
//
// The host set is fixed at construction and read without locking.
type Resolver struct {
	pairs map[string]*KeyPair
}

// NewResolver creates a resolver over host -> key pair.
// The map is copied; later changes to pairs are not seen.
func NewResolver(pairs map[string]*KeyPair) *Resolver {
	m := make(map[string]*KeyPair, len(pairs))
	for host, kp := range pairs {
		m[host] = kp
	}
	return &Resolver{pairs: m}
}

// GetCertificate returns the certificate for hello.ServerName, lowercased,
// by exact match. This implements tls.Config.GetCertificate.
func (r *Resolver) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	if hello.ServerName == "" {
		return nil, ErrNoServerName
	}
	kp, ok := r.pairs[strings.ToLower(hello.ServerName)]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownServerName, hello.ServerName)
	}
	return kp.Certificate(), nil
}

// Lookup returns the key pair configured for host.
func (r *Resolver) Lookup(host string) (*KeyPair, bool) {
	kp, ok := r.pairs[host]
	return kp, ok
}

// Hosts returns the hosts with a certificate, sorted.
func (r *Resolver) Hosts() []string {
	hosts := make([]string, 0, len(r.pairs))
	for h := range r.pairs {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// WatchAll starts hot reload for every key pair.
func (r *Resolver) WatchAll() {
	for _, kp := range r.pairs {
		kp.WatchAsync()
	}
}

// StopAll stops hot reload for every key pair.
func (r *Resolver) StopAll() {
	for _, kp := range r.pairs {
		kp.Stop()
	}
}

// ServerConfig returns a server TLS config that selects certificates with r.
// keyLog, when non-nil, receives session secrets in NSS key log format.
func (r *Resolver) ServerConfig(keyLog io.Writer) *tls.Config {
	return &tls.Config{
		GetCertificate: r.GetCertificate,
		MinVersion:     tls.VersionTLS12,
		KeyLogWriter:   keyLog,
	}
}
