// Package logger provides structured logging for rudis.
//
// It wraps the standard library log/slog:
//
//   - logger.go: Logger interface, configuration and the global level
//   - async.go: non-blocking writer that drops lines instead of stalling the reactor
//   - context.go: context propagation of loggers, client ids and trace ids
//   - redact.go: masking of sensitive fields and truncation of large values
package logger
