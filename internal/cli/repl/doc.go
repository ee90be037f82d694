// Package repl provides interactive mode for rudis-cli.
//
// This package implements the Read-Eval-Print Loop for interactive sessions:
//
//   - repl.go: Main REPL loop and built-in commands
//   - split.go: Quote-aware argument splitting
//   - completer.go: Prefix completion for commands
//   - history.go: Command history persistence
//
// Lines that are not built-ins are split into arguments and handed to an
// Executor, which normally sends them to the server.
package repl
