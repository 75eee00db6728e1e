// Package config defines the geminid server configuration.
//
//   - spec.go: ServerConfig and its sections
//   - default.go: default values
//   - verify.go: validation run before the server starts
//   - summary.go: key/value view of a config for the startup log
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and GEMINID_* environment variables.
package config
