// Package redisserver implements the rudis network core: a single-threaded
// reactor that accepts RESP clients, decodes their requests and dispatches
// them to pluggable commands.
//
// The moving parts:
//   - Reactor: owns the listener, the poller and the timer queue, and runs the
//     wait/accept/dispatch loop on one OS thread
//   - Registry: id to Client map behind a single mutex
//   - Conn: one socket, its read buffer and the frame codec
//   - CommandTable: verb to Command factory; PING ships built in
//
// Server wraps all of it with Start/Shutdown.
package redisserver
