// Package buildinfo exposes version information injected at build time:
//
//	go build -ldflags "-X github.com/yndnr/geminid/internal/infra/buildinfo.Version=v0.3.0 \
//	  -X github.com/yndnr/geminid/internal/infra/buildinfo.Commit=1a2b3c4"
//
// The server identifies itself as ServerString() in generated directory
// index footers.
package buildinfo
