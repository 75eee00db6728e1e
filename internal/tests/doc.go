// Package tests holds end-to-end tests that run geminid's components
// together: configuration loading, site assembly, the Gemini listener,
// the ops endpoint and the geminictl clients.
package tests
