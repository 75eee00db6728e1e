// Package main provides the entry point for geminictl.
//
// geminictl is the operator tool for geminid: it fetches gemini:// URLs,
// manages kv document stores offline, writes and checks configuration
// files, generates certificates and queries a running server's ops
// endpoint.
//
// Usage:
//
//	geminictl fetch gemini://localhost/
//	geminictl store put --db-dir /var/lib/geminid/kv localhost /index.gmi index.gmi
//	geminictl -o json config check /etc/geminid/geminid.yaml
package main
