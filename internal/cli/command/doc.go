// Package command defines the geminictl command tree on urfave/cli/v2.
//
//   - root.go: the App, global flags and shared helpers
//   - fetch.go: Gemini client
//   - store.go: offline management of kv document stores
//   - config.go: config file generation and checking
//   - cert.go: self-signed certificates for new sites
//   - status.go: queries a running server's ops endpoint
//   - version.go: build information
//
// Commands write results to the App's Writer through an output.Formatter
// so that every command honours --output.
package command
