// Package sites assembles the runtime site set from configuration: one
// key pair per host for the TLS resolver, one content source per host
// for the router, and the document stores shared by kv sources.
package sites
