// Package geminiserver provides the TLS listener and per-connection
// handler for the Gemini protocol.
//
// Each accepted connection is served by its own goroutine:
//
//	handshake -> read request line -> validate URL -> route host -> serve -> close
//
// Validation and framing errors drop the connection without a response.
// A host with no configured site is answered with status 51. A content
// source that fails before writing anything is answered with status 41.
package geminiserver
