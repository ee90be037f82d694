// Package config provides CLI configuration for rudis-cli.
//
// This package defines CLI-specific configuration:
//
//   - spec.go: CLIConfig struct (~/.rudis/cli.yaml)
//   - loader.go: Configuration loading, saving and merging
//
// Configuration includes:
//
//   - Default server address and request timeout
//   - Output format preference
//   - Saved connection profiles
//   - History file location
//
// Precedence, highest first: command-line flags, RUDIS_* environment
// variables, the config file, built-in defaults.
package config
