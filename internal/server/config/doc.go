// Package config provides the rudis-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation of ranges, addresses and enumerations
//   - convert.go: Mapping onto the runtime configs of the server packages
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config
