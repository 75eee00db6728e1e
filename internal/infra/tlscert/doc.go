// Package tlscert provides TLS certificate management for geminid.
//
// This package handles certificate loading and selection:
//
//   - keypair.go: per-site key pair with optional hot reload via fsnotify
//   - resolver.go: SNI-based certificate selection for the server handshake
//   - pool.go: trusted roots for the geminictl client
package tlscert
