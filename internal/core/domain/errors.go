// Package domain defines the core protocol models for geminid.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a protocol error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "GM-URL-4001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// URL Errors (URL)
// ============================================================================

var (
	// ErrURLParse indicates the request line is not a parseable absolute URL.
	ErrURLParse = NewDomainError("GM-URL-4000", "parser error")

	// ErrMissingAuthority indicates the URL has no "//host" segment.
	ErrMissingAuthority = NewDomainError("GM-URL-4001", "missing authority")

	// ErrUserinfoNotAllowed indicates a username or password was supplied.
	ErrUserinfoNotAllowed = NewDomainError("GM-URL-4002", "userinfo component not allowed")

	// ErrMissingHost indicates the authority carries no usable host.
	ErrMissingHost = NewDomainError("GM-URL-4003", "missing host")

	// ErrUnknownScheme indicates a scheme other than gemini.
	// Details carry the scheme that was received.
	ErrUnknownScheme = NewDomainError("GM-URL-4004", "unknown scheme")
)

// ============================================================================
// Request Framing Errors (REQ)
// ============================================================================

var (
	// ErrMissingCRLF indicates the peer closed before sending a CRLF.
	ErrMissingCRLF = NewDomainError("GM-REQ-4000", "invalid data").WithDetails("missing CRLF")

	// ErrInvalidEncoding indicates the request line is not valid UTF-8.
	ErrInvalidEncoding = NewDomainError("GM-REQ-4001", "invalid data")

	// ErrLineTooLong indicates the request line exceeded the configured cap.
	ErrLineTooLong = NewDomainError("GM-REQ-4130", "request line too long")

	// ErrHostMismatch indicates the requested host differs from the TLS server name.
	ErrHostMismatch = NewDomainError("GM-REQ-4210", "host does not match server name")
)

// ============================================================================
// Response Errors (RESP)
// ============================================================================

var (
	// ErrInvalidStatus indicates a status code outside the two-digit range.
	ErrInvalidStatus = NewDomainError("GM-RESP-5000", "invalid status code")

	// ErrInvalidMeta indicates a meta string that cannot be framed.
	ErrInvalidMeta = NewDomainError("GM-RESP-5001", "invalid meta")
)

// ============================================================================
// Site Errors (SITE)
// ============================================================================

var (
	// ErrSiteInvalid indicates a site definition failed validation.
	ErrSiteInvalid = NewDomainError("GM-SITE-4000", "invalid site")

	// ErrSiteConflict indicates two sites share the same host.
	ErrSiteConflict = NewDomainError("GM-SITE-4090", "duplicate site host")
)
