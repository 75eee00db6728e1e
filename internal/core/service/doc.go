// Package service provides request-time services for geminid.
//
// This package contains:
//
//   - Router: exact host to VirtualSite lookup
//
// Services are built once at startup and are read-only afterwards,
// so they are safe for concurrent use without locking.
package service
