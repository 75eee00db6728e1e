// Package main provides the entry point for geminid.
//
// geminid serves Gemini capsules over TLS for any number of virtual
// hosts, each with its own certificate and content source.
//
// Usage:
//
//	geminid [flags]
//	geminid -config /etc/geminid/geminid.yaml
//
// Configuration is read from the YAML file and then GEMINID_* environment
// variables. SIGHUP reloads the log level and every site certificate.
package main
