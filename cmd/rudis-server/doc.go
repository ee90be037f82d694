// Package main provides the entry point for rudis-server.
//
// The server accepts RESP clients on a single-threaded event loop and
// dispatches their commands. Alongside the RESP listener it can serve
// Prometheus metrics over HTTP.
//
// Usage:
//
//	rudis-server [flags]
//	rudis-server --config /path/to/rudis.yaml
//	RUDIS_SERVER_REDIS_PORT=6380 rudis-server
//
// Configuration is read from .env files, the config file and RUDIS_*
// environment variables. The log level is reloaded when the config file
// changes or the process receives SIGHUP. SIGINT and SIGTERM shut the
// server down gracefully.
package main
