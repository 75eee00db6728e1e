// Package logger provides structured logging for geminid.
//
// It wraps log/slog with a small Logger interface:
//
//   - logger.go: handler setup, dynamic level, package-level helpers
//   - context.go: loggers and connection ids carried in a context
//   - redact.go: masking of key material and secrets
package logger
