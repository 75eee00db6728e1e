// Package connection provides the network clients used by geminictl.
//
//   - gemini.go: a minimal Gemini client (TLS, one request per connection)
//   - http.go: a JSON client for the geminid ops endpoint
//
// Gemini servers usually present self-signed certificates, so the
// Gemini client skips verification unless it is given a CA pool.
package connection
