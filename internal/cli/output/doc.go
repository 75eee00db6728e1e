// Package output renders geminictl results as a table, JSON or YAML.
package output
