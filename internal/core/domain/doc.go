// Package domain defines the core protocol models for geminid.
//
// Domain models are pure values without IO dependencies beyond the
// io.Writer a response is framed onto. This package contains:
//
//   - URL: validated request target produced by ValidateURL
//   - Response: status/meta/body triple and its wire framing
//   - VirtualSite: one configured host and its ContentSource
//   - Errors: coded protocol errors
package domain
