// Package main provides the entry point for rudis-cli.
//
// The CLI sends commands to a rudis server and reports replies:
//
//   - One-shot commands (rudis-cli PING)
//   - Interactive REPL mode when run without arguments
//   - Round-trip checks and load generation (ping, bench)
//   - Saved connection profiles and configuration checks
//
// Usage:
//
//	rudis-cli [global options] [COMMAND [ARG...]]
//	rudis-cli -s 127.0.0.1:6379 -o json PING hello
//	rudis-cli bench -n 100000 -c 50 -P 16
package main
