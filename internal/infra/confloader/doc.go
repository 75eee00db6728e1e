// Package confloader loads geminid configuration.
//
// Values come from a YAML file and GEMINID_* environment variables
// (environment wins), unmarshaled through koanf into a typed struct.
// Watcher reports edits to the config file so settings that are safe
// to change at runtime, such as the log level, can be re-applied.
package confloader
