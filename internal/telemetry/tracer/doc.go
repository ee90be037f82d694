// Package tracer wraps OpenTelemetry for rudis.
//
// Tracing is off by default and then costs a no-op span per command. When
// enabled, spans go to the global otel TracerProvider, so an embedding program
// that installs an SDK provider with an exporter gets them exported.
package tracer
