// Package command provides CLI command definitions for rudis-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags, mode detection
//   - env.go: Per-invocation state shared by commands and the REPL
//   - exec.go: Raw command execution
//   - ping.go: Round-trip checks
//   - bench.go: Load generation against a server
//   - connect.go: Connection management commands
//   - config.go: Configuration subcommand group
//
// Invoked with a command line (rudis-cli PING) the arguments are sent to
// the server once; invoked with no arguments the interactive REPL starts.
package command
