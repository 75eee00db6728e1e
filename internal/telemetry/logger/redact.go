package logger

import (
	"log/slog"
	"strings"
)

// Attribute keys whose values are never logged.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"private_key",
	"privkey",
}

// pemPrivateMarker appears in every PEM-encoded private key block.
const pemPrivateMarker = "PRIVATE KEY-----"

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v == "" {
			return a
		}
		if IsSensitiveValue(v) || IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// RedactString replaces v with a placeholder when it carries key material.
func RedactString(v string) string {
	if IsSensitiveValue(v) {
		return redactedValue
	}
	return v
}

// IsSensitiveKey reports whether a key name suggests secret content.
//
// File paths are not secrets: "key_file" and "cert_file" pass through.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, p := range sensitiveKeyPatterns {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether v contains a PEM private key.
func IsSensitiveValue(v string) bool {
	return strings.Contains(v, pemPrivateMarker)
}
