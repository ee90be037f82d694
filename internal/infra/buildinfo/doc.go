// Package buildinfo exposes version information for the rudis binaries.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/rudis-go/internal/infra/buildinfo.Version=v0.1.0 \
//	  -X github.com/yndnr/rudis-go/internal/infra/buildinfo.Commit=abc123"
//
// Fields left unset fall back to what the Go toolchain embeds in the binary.
package buildinfo
