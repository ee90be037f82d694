// Package output renders rudis-cli results.
//
//   - reply.go: redis-cli style rendering of RESP replies
//   - formatter.go: Formatter interface and factory
//   - table.go: Table rendering with wide mode support
//   - json.go, yaml.go: machine-readable output
//   - progress.go: request counter for long-running commands
package output
